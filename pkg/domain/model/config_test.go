package model_test

import (
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/onnxify/pkg/domain/model"
)

func TestConfig_Paths(t *testing.T) {
	cfg := &model.Config{
		TransformersVersion: "3.0.0",
		HubBaseURL:          "https://huggingface.co",
		RepoPath:            filepath.Join("work", "transformers.js"),
	}

	gt.Value(t, cfg.ModelDir("org/model-x")).Equal(filepath.Join("work", "transformers.js", "models", "org", "model-x"))
	gt.Value(t, cfg.ModelURL("org/model-x")).Equal("https://huggingface.co/org/model-x")
	gt.Value(t, cfg.ArchivePath()).Equal(filepath.Join("work", "transformers_3.0.0.tar.gz"))
}
