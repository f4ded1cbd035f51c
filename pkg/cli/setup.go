package cli

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/onnxify/pkg/infra/archive"
	"github.com/m-mizutani/onnxify/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdSetup() *cli.Command {
	var conversionCfg conversionConfig

	return &cli.Command{
		Name:  "setup",
		Usage: "Download the transformers.js checkout without converting anything",
		Flags: conversionCfg.transformers.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			bootstrapper := usecase.NewBootstrapper(archive.NewClient(), conversionCfg.checkoutConfig())
			if err := bootstrapper.Setup(ctx); err != nil {
				return err
			}

			ctxlog.From(ctx).Info("Checkout ready", slog.String("path", conversionCfg.transformers.RepoPath))
			return nil
		},
	}
}
