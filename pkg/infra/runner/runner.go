package runner

import (
	"bytes"
	"context"
	"errors"
	"os/exec"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/onnxify/pkg/domain/interfaces"
	"github.com/m-mizutani/onnxify/pkg/domain/model"
)

type runner struct{}

// New creates a CommandRunner backed by os/exec
func New() interfaces.CommandRunner {
	return &runner{}
}

// Run starts the command and waits for it to exit. The process is not bound to ctx
// cancellation: once started it runs until it exits on its own.
func (r *runner) Run(ctx context.Context, c *model.Command) (*model.CommandResult, error) {
	logger := ctxlog.From(ctx)

	cmd := exec.CommandContext(context.WithoutCancel(ctx), c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = []string{}
	if c.Env != nil {
		cmd.Env = c.Env
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug("Running command", "name", c.Name, "args", c.Args, "dir", c.Dir)

	err := cmd.Run()
	result := &model.CommandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		result.ExitCode = 0
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		return nil, goerr.Wrap(err, "failed to run command",
			goerr.V("name", c.Name),
			goerr.V("dir", c.Dir),
		)
	}

	logger.Debug("Command finished", "name", c.Name, "exit_code", result.ExitCode)

	return result, nil
}
