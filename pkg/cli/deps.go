package cli

import (
	"github.com/m-mizutani/onnxify/pkg/cli/config"
	"github.com/m-mizutani/onnxify/pkg/domain/interfaces"
	"github.com/m-mizutani/onnxify/pkg/domain/model"
	"github.com/m-mizutani/onnxify/pkg/domain/types"
	"github.com/m-mizutani/onnxify/pkg/infra/archive"
	"github.com/m-mizutani/onnxify/pkg/infra/runner"
	"github.com/m-mizutani/onnxify/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// conversionConfig groups the flags every conversion command needs
type conversionConfig struct {
	hub          config.Hub
	transformers config.Transformers
}

func (c *conversionConfig) Flags() []cli.Flag {
	return append(c.hub.Flags(), c.transformers.Flags()...)
}

func (c *conversionConfig) configSource() usecase.ConfigSource {
	return usecase.ConfigSource{
		SystemToken:         types.Token(c.hub.Token),
		AuthorName:          c.hub.AuthorName,
		TransformersVersion: c.transformers.Version,
		HubBaseURL:          c.hub.BaseURL,
		ArchiveBaseURL:      c.transformers.ArchiveBaseURL,
		RepoPath:            c.transformers.RepoPath,
	}
}

// checkoutConfig is the part of the configuration the bootstrapper reads. It
// carries no token.
func (c *conversionConfig) checkoutConfig() *model.Config {
	src := c.configSource()
	return &model.Config{
		TransformersVersion: src.TransformersVersion,
		HubBaseURL:          src.HubBaseURL,
		ArchiveBaseURL:      src.ArchiveBaseURL,
		RepoPath:            src.RepoPath,
	}
}

func (c *conversionConfig) newPipeline(opts ...usecase.PipelineOption) (interfaces.ConfigLoader, *usecase.Bootstrapper, interfaces.PipelineUseCase) {
	hubClient := c.hub.NewClient()
	loader := usecase.NewConfigLoader(hubClient, c.configSource())
	bootstrapper := usecase.NewBootstrapper(archive.NewClient(), c.checkoutConfig())

	opts = append([]usecase.PipelineOption{usecase.WithConverterPython(c.transformers.Python)}, opts...)
	pipeline := usecase.NewPipeline(loader, bootstrapper, runner.New(), hubClient, opts...)

	return loader, bootstrapper, pipeline
}
