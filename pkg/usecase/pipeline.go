package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/onnxify/pkg/domain/interfaces"
	"github.com/m-mizutani/onnxify/pkg/domain/model"
	"github.com/m-mizutani/onnxify/pkg/utils/async"
)

type pipeline struct {
	loader       interfaces.ConfigLoader
	bootstrapper interfaces.Bootstrapper
	runner       interfaces.CommandRunner
	hub          interfaces.HubClient
	notifier     interfaces.Notifier
	python       string
	now          func() time.Time
}

// PipelineOption configures the pipeline
type PipelineOption func(*pipeline)

// WithNotifier sets where finished jobs are reported
func WithNotifier(notifier interfaces.Notifier) PipelineOption {
	return func(p *pipeline) {
		p.notifier = notifier
	}
}

// WithConverterPython sets the interpreter passed to the converter
func WithConverterPython(python string) PipelineOption {
	return func(p *pipeline) {
		p.python = python
	}
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) PipelineOption {
	return func(p *pipeline) {
		p.now = now
	}
}

// NewPipeline creates a new instance of PipelineUseCase
func NewPipeline(
	loader interfaces.ConfigLoader,
	bootstrapper interfaces.Bootstrapper,
	runner interfaces.CommandRunner,
	hub interfaces.HubClient,
	opts ...PipelineOption,
) interfaces.PipelineUseCase {
	p := &pipeline{
		loader:       loader,
		bootstrapper: bootstrapper,
		runner:       runner,
		hub:          hub,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run takes a confirmed submission through configuration, bootstrap, conversion and
// upload, stopping at the first failure. Each step blocks until it completes.
func (x *pipeline) Run(ctx context.Context, req *model.ConversionRequest) (*model.Job, error) {
	job := &model.Job{
		ID:        uuid.NewString(),
		ModelID:   req.ModelID,
		Stage:     model.StageAwaitingInput,
		StartedAt: x.now(),
	}

	logger := ctxlog.From(ctx).With("job_id", job.ID, "model_id", req.ModelID)
	ctx = ctxlog.With(ctx, logger)

	if req.ModelID == "" {
		return job, goerr.New("model ID is required", goerr.V("job_id", job.ID))
	}

	for _, next := range []model.Stage{model.StageAwaitingConfirmation, model.StageConverting} {
		if err := job.Transition(next); err != nil {
			return job, err
		}
	}

	cfg, err := x.loader.Load(ctx, req.UserToken)
	if err != nil {
		return x.fail(ctx, job, err)
	}
	job.ModelURL = cfg.ModelURL(req.ModelID)

	if err := x.bootstrapper.Setup(ctx); err != nil {
		return x.fail(ctx, job, err)
	}

	result, err := NewConverter(x.runner, cfg, WithPython(x.python)).Convert(ctx, req.ModelID)
	job.Conversion = result
	if err != nil {
		return x.fail(ctx, job, err)
	}

	if err := job.Transition(model.StageUploading); err != nil {
		return job, err
	}

	info, err := NewUploader(x.hub, cfg).Upload(ctx, req.ModelID)
	if err != nil {
		return x.fail(ctx, job, err)
	}
	job.Commit = info

	if err := job.Transition(model.StageDone); err != nil {
		return job, err
	}
	x.finish(ctx, job)

	logger.Info("Job finished", "model_url", job.ModelURL)
	return job, nil
}

func (x *pipeline) fail(ctx context.Context, job *model.Job, cause error) (*model.Job, error) {
	if err := job.Fail(cause); err != nil {
		return job, err
	}
	x.finish(ctx, job)

	ctxlog.From(ctx).Warn("Job failed", "error", cause)
	return job, cause
}

func (x *pipeline) finish(ctx context.Context, job *model.Job) {
	job.FinishedAt = x.now()

	if x.notifier == nil {
		return
	}
	snapshot := *job
	async.Dispatch(ctx, "notify", func(ctx context.Context) error {
		return x.notifier.Notify(ctx, &snapshot)
	})
}
