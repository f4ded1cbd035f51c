package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/onnxify/pkg/domain/model"
	"github.com/m-mizutani/onnxify/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

func cmdConvert() *cli.Command {
	var (
		conversionCfg conversionConfig
		userToken     string
	)

	flags := append(conversionCfg.Flags(), &cli.StringFlag{
		Name:        "user-token",
		Usage:       "Write token of the account owning the model. Overrides --hf-token",
		Destination: &userToken,
		Sources:     cli.EnvVars("ONNXIFY_USER_TOKEN"),
	})

	return &cli.Command{
		Name:      "convert",
		Aliases:   []string{"c"},
		Usage:     "Convert a model and upload the ONNX files to its repository",
		ArgsUsage: "<model-id>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			modelID := c.Args().First()
			if modelID == "" {
				return goerr.New("model ID is required")
			}

			_, _, pipelineUC := conversionCfg.newPipeline()

			job, err := pipelineUC.Run(ctx, &model.ConversionRequest{
				ModelID:   types.ModelID(modelID),
				UserToken: types.Token(userToken),
			})
			printJob(os.Stdout, job)
			return err
		},
	}
}

func printJob(w io.Writer, job *model.Job) {
	if job == nil {
		return
	}

	if job.Conversion != nil && job.Conversion.Success {
		_, _ = color.New(color.FgGreen).Fprintln(w, "Conversion successful!")
		if job.Conversion.Stderr != "" {
			_, _ = fmt.Fprintln(w, job.Conversion.Stderr)
		}
	}

	switch job.Stage {
	case model.StageDone:
		_, _ = color.New(color.FgGreen).Fprintln(w, "Upload successful!")
		_, _ = fmt.Fprintf(w, "Go to %s\n", job.ModelURL)
	case model.StageFailed:
		_, _ = color.New(color.FgRed, color.Bold).Fprintf(w, "%s failed: ", failedStep(job))
		_, _ = fmt.Fprintln(w, job.Err)
	}
}

func failedStep(job *model.Job) string {
	switch {
	case goerr.HasTag(job.Err, types.ErrTagConversion):
		return "Conversion"
	case goerr.HasTag(job.Err, types.ErrTagUpload):
		return "Upload"
	case goerr.HasTag(job.Err, types.ErrTagSetup):
		return "Setup"
	case goerr.HasTag(job.Err, types.ErrTagConfig):
		return "Configuration"
	default:
		return "Job"
	}
}
