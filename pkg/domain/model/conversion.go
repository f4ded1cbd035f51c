package model

// Command describes a subprocess invocation
type Command struct {
	Name string
	Args []string
	Dir  string
	Env  []string // nil is treated as an empty environment, never as inherited
}

// CommandResult holds the outcome of a finished subprocess
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// ConversionResult represents the outcome of one conversion run
type ConversionResult struct {
	Success  bool
	ExitCode int
	Stdout   string
	Stderr   string // Diagnostic text; attached on success too (warnings)
}
