package config

import (
	"github.com/m-mizutani/onnxify/pkg/domain/interfaces"
	"github.com/m-mizutani/onnxify/pkg/infra/hub"
	"github.com/urfave/cli/v3"
)

// Hub holds Hugging Face hub configuration
type Hub struct {
	Token      string
	AuthorName string
	BaseURL    string
}

// Flags returns CLI flags for hub configuration
func (c *Hub) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "hf-token",
			Usage:       "System write token for the Hugging Face hub",
			Destination: &c.Token,
			Sources:     cli.EnvVars("HF_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "author-name",
			Usage:       "Owner of the system token. Skips the identity lookup when set",
			Destination: &c.AuthorName,
			Sources:     cli.EnvVars("SPACE_AUTHOR_NAME"),
		},
		&cli.StringFlag{
			Name:        "hub-url",
			Usage:       "Base URL of the Hugging Face hub",
			Value:       hub.DefaultBaseURL,
			Destination: &c.BaseURL,
			Sources:     cli.EnvVars("ONNXIFY_HUB_URL"),
		},
	}
}

// NewClient creates a hub client for the configured base URL
func (c *Hub) NewClient() interfaces.HubClient {
	return hub.NewClient(c.BaseURL)
}
