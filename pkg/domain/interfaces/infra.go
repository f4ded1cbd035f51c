package interfaces

import (
	"context"

	"github.com/m-mizutani/onnxify/pkg/domain/model"
	"github.com/m-mizutani/onnxify/pkg/domain/types"
)

// HubClient defines operations for interacting with the model hub API
type HubClient interface {
	// WhoAmI returns the account name the token belongs to
	WhoAmI(ctx context.Context, token types.Token) (string, error)

	// UploadFolder commits every file under req.FolderPath to the repository
	UploadFolder(ctx context.Context, token types.Token, req *model.UploadRequest) (*model.CommitInfo, error)
}

// ArchiveSource fetches source archives over plain HTTP
type ArchiveSource interface {
	// Probe requests url and returns the response status code
	Probe(ctx context.Context, url string) (int, error)

	// Download writes the body of url to dst and returns the number of bytes written
	Download(ctx context.Context, url, dst string) (int64, error)
}

// CommandRunner runs subprocesses to completion
type CommandRunner interface {
	// Run returns an error only when the process could not be started or waited on.
	// A nonzero exit code is reported in the result.
	Run(ctx context.Context, cmd *model.Command) (*model.CommandResult, error)
}

// Notifier publishes the outcome of finished jobs
type Notifier interface {
	Notify(ctx context.Context, job *model.Job) error
}
