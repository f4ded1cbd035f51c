package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/onnxify/pkg/cli/config"
	controller "github.com/m-mizutani/onnxify/pkg/controller/http"
	"github.com/m-mizutani/onnxify/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var (
		serverCfg     config.Server
		slackCfg      config.Slack
		conversionCfg conversionConfig
	)

	flags := append(serverCfg.Flags(), conversionCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start the conversion web form",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			logger.Info("Starting onnxify server",
				slog.String("addr", serverCfg.Addr),
			)

			loader, bootstrapper, pipelineUC := conversionCfg.newPipeline(
				usecase.WithNotifier(slackCfg.Notifier()),
			)

			// The system token must resolve before the form is served
			sysCfg, err := loader.Load(ctx, "")
			if err != nil {
				return goerr.Wrap(err, "failed to load configuration")
			}
			logger.Info("Configuration loaded", slog.String("username", sysCfg.Username))

			if err := bootstrapper.Setup(ctx); err != nil {
				return err
			}

			// Create HTTP server with options
			server, err := controller.NewServer(
				ctx,
				pipelineUC,
				controller.WithAddr(serverCfg.Addr),
				controller.WithHubBaseURL(conversionCfg.hub.BaseURL),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			// Start server in goroutine
			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server error", slog.Any("error", err))
				}
			}()

			// Wait for interrupt signal
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			}

			// Graceful shutdown
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}
