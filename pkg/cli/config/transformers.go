package config

import (
	"github.com/m-mizutani/onnxify/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Transformers holds configuration of the transformers.js checkout used for conversion
type Transformers struct {
	Version        string
	ArchiveBaseURL string
	RepoPath       string
	Python         string
}

// Flags returns CLI flags for the conversion tool
func (c *Transformers) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "transformers-version",
			Usage:       "transformers.js release providing the conversion script",
			Value:       "3.0.0",
			Destination: &c.Version,
			Sources:     cli.EnvVars("ONNXIFY_TRANSFORMERS_VERSION"),
		},
		&cli.StringFlag{
			Name:        "archive-url",
			Usage:       "Base URL of transformers.js source archives",
			Value:       "https://github.com/xenova/transformers.js/archive/refs",
			Destination: &c.ArchiveBaseURL,
			Sources:     cli.EnvVars("ONNXIFY_ARCHIVE_URL"),
		},
		&cli.StringFlag{
			Name:        "repo-path",
			Usage:       "Local checkout directory of transformers.js",
			Value:       "./transformers.js",
			Destination: &c.RepoPath,
			Sources:     cli.EnvVars("ONNXIFY_REPO_PATH"),
		},
		&cli.StringFlag{
			Name:        "python",
			Usage:       "Python interpreter running the conversion script",
			Value:       usecase.DefaultPython,
			Destination: &c.Python,
			Sources:     cli.EnvVars("ONNXIFY_PYTHON"),
		},
	}
}
