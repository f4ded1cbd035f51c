package usecase

import (
	"context"
	"os"
	"path/filepath"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/onnxify/pkg/domain/interfaces"
	"github.com/m-mizutani/onnxify/pkg/domain/model"
	"github.com/m-mizutani/onnxify/pkg/domain/types"
)

const (
	// ArtifactExt is the extension of files moved into the upload folder
	ArtifactExt = ".onnx"
	// ArtifactDir is both the subfolder name and the destination path in the repository
	ArtifactDir = "onnx"
)

type uploader struct {
	hub interfaces.HubClient
	cfg *model.Config
}

// NewUploader creates a new instance of UploaderUseCase
func NewUploader(hub interfaces.HubClient, cfg *model.Config) interfaces.UploaderUseCase {
	return &uploader{
		hub: hub,
		cfg: cfg,
	}
}

// Upload moves the top-level artifacts of the model output directory into the
// onnx subfolder and pushes it to the model repository. The output directory is
// removed afterwards whatever the outcome.
func (x *uploader) Upload(ctx context.Context, modelID types.ModelID) (*model.CommitInfo, error) {
	logger := ctxlog.From(ctx)

	// The output directory is removed below, so it must stay under RepoPath/models
	if !filepath.IsLocal(filepath.FromSlash(modelID.String())) {
		return nil, goerr.New("invalid model ID", goerr.T(types.ErrTagUpload), goerr.V("model_id", modelID))
	}

	modelDir := x.cfg.ModelDir(modelID)
	onnxDir := filepath.Join(modelDir, ArtifactDir)

	defer func() {
		// cleanup errors are ignored
		_ = os.RemoveAll(modelDir)
	}()

	moved, err := moveArtifacts(modelDir, onnxDir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to prepare upload folder", goerr.T(types.ErrTagUpload), goerr.V("model_id", modelID))
	}

	logger.Info("Uploading artifacts", "files", moved)

	info, err := x.hub.UploadFolder(ctx, x.cfg.Token, &model.UploadRequest{
		FolderPath: onnxDir,
		RepoID:     modelID.String(),
		PathInRepo: ArtifactDir,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to upload folder", goerr.T(types.ErrTagUpload), goerr.V("model_id", modelID))
	}

	return info, nil
}

// moveArtifacts moves files with ArtifactExt directly under modelDir into onnxDir.
// Nested files are not considered.
func moveArtifacts(modelDir, onnxDir string) ([]string, error) {
	if _, err := os.Stat(modelDir); err != nil {
		return nil, goerr.Wrap(err, "model output directory not found", goerr.V("path", modelDir))
	}

	if err := os.MkdirAll(onnxDir, 0755); err != nil {
		return nil, goerr.Wrap(err, "failed to create onnx folder", goerr.V("path", onnxDir))
	}

	entries, err := os.ReadDir(modelDir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read model output directory", goerr.V("path", modelDir))
	}

	var moved []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || filepath.Ext(entry.Name()) != ArtifactExt {
			continue
		}

		src := filepath.Join(modelDir, entry.Name())
		dst := filepath.Join(onnxDir, entry.Name())
		if err := os.Rename(src, dst); err != nil {
			return nil, goerr.Wrap(err, "failed to move artifact", goerr.V("from", src), goerr.V("to", dst))
		}
		moved = append(moved, entry.Name())
	}

	return moved, nil
}
