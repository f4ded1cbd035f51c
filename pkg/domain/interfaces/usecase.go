package interfaces

import (
	"context"

	"github.com/m-mizutani/onnxify/pkg/domain/model"
	"github.com/m-mizutani/onnxify/pkg/domain/types"
)

// ConfigLoader resolves the session configuration
type ConfigLoader interface {
	// Load prefers userToken when set and falls back to the system token
	Load(ctx context.Context, userToken types.Token) (*model.Config, error)
}

// Bootstrapper ensures the conversion tool checkout exists
type Bootstrapper interface {
	Setup(ctx context.Context) error
}

// ConverterUseCase runs the conversion tool for a model
type ConverterUseCase interface {
	Convert(ctx context.Context, modelID types.ModelID) (*model.ConversionResult, error)
}

// UploaderUseCase pushes converted artifacts to the hub
type UploaderUseCase interface {
	Upload(ctx context.Context, modelID types.ModelID) (*model.CommitInfo, error)
}

// PipelineUseCase drives a submission through conversion and upload
type PipelineUseCase interface {
	// Run always returns the job. The error is the cause of a failed job.
	Run(ctx context.Context, req *model.ConversionRequest) (*model.Job, error)
}
