package usecase

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/onnxify/pkg/domain/interfaces"
	"github.com/m-mizutani/onnxify/pkg/domain/model"
	"github.com/m-mizutani/onnxify/pkg/domain/types"
)

// DefaultPython is the interpreter running the conversion script
const DefaultPython = "python3"

type converter struct {
	runner interfaces.CommandRunner
	cfg    *model.Config
	python string
}

// ConverterOption configures the converter
type ConverterOption func(*converter)

// WithPython sets the interpreter used to run the conversion script
func WithPython(python string) ConverterOption {
	return func(c *converter) {
		if python != "" {
			c.python = python
		}
	}
}

// NewConverter creates a new instance of ConverterUseCase
func NewConverter(runner interfaces.CommandRunner, cfg *model.Config, opts ...ConverterOption) interfaces.ConverterUseCase {
	c := &converter{
		runner: runner,
		cfg:    cfg,
		python: DefaultPython,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert runs the quantized ONNX conversion of modelID inside the checkout. The
// result is always returned; the error is set iff the conversion did not succeed
// and carries the captured stderr (or launch error) as its message.
func (x *converter) Convert(ctx context.Context, modelID types.ModelID) (*model.ConversionResult, error) {
	logger := ctxlog.From(ctx)

	cmd := &model.Command{
		Name: x.python,
		Args: []string{"-m", "scripts.convert", "--quantize", "--model_id", modelID.String()},
		Dir:  x.cfg.RepoPath,
		Env:  []string{},
	}

	logger.Info("Converting model", "dir", cmd.Dir)

	out, err := x.runner.Run(ctx, cmd)
	if err != nil {
		return &model.ConversionResult{Success: false, ExitCode: -1, Stderr: err.Error()},
			goerr.Wrap(err, "failed to launch converter", goerr.T(types.ErrTagConversion), goerr.V("model_id", modelID))
	}

	result := &model.ConversionResult{
		Success:  out.ExitCode == 0,
		ExitCode: out.ExitCode,
		Stdout:   out.Stdout,
		Stderr:   out.Stderr,
	}

	if !result.Success {
		logger.Warn("Conversion failed", "exit_code", out.ExitCode)
		return result, goerr.New(out.Stderr,
			goerr.T(types.ErrTagConversion),
			goerr.V("model_id", modelID),
			goerr.V("exit_code", out.ExitCode),
		)
	}

	logger.Info("Conversion finished", "stderr_bytes", len(out.Stderr))
	return result, nil
}
