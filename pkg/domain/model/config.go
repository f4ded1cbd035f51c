package model

import (
	"path/filepath"

	"github.com/m-mizutani/onnxify/pkg/domain/types"
)

// Config is the resolved configuration of one conversion session
type Config struct {
	Token               types.Token // Hub access token used for identity lookup and upload
	Username            string      // Account name the token belongs to
	TransformersVersion string      // Version (tag or branch) of the conversion tool source
	HubBaseURL          string      // e.g. https://huggingface.co
	ArchiveBaseURL      string      // e.g. https://github.com/xenova/transformers.js/archive/refs
	RepoPath            string      // Local checkout of the conversion tool
}

// ModelDir returns the per-model output directory written by the converter
func (c *Config) ModelDir(modelID types.ModelID) string {
	return filepath.Join(c.RepoPath, "models", filepath.FromSlash(modelID.String()))
}

// ModelURL returns the hub page of the model repository
func (c *Config) ModelURL(modelID types.ModelID) string {
	return c.HubBaseURL + "/" + modelID.String()
}

// ArchivePath returns where the source archive is downloaded before extraction
func (c *Config) ArchivePath() string {
	return filepath.Join(filepath.Dir(c.RepoPath), "transformers_"+c.TransformersVersion+".tar.gz")
}
