package config

import (
	"github.com/m-mizutani/onnxify/pkg/domain/interfaces"
	"github.com/m-mizutani/onnxify/pkg/infra/slack"
	"github.com/urfave/cli/v3"
)

// Slack holds Slack notification configuration
type Slack struct {
	WebhookURL string
}

// Flags returns CLI flags for Slack configuration
func (c *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-webhook-url",
			Usage:       "Slack incoming webhook URL for job notifications",
			Destination: &c.WebhookURL,
			Sources:     cli.EnvVars("ONNXIFY_SLACK_WEBHOOK_URL"),
		},
	}
}

// Notifier returns the Slack notifier, or a no-op one when no webhook URL is set
func (c *Slack) Notifier() interfaces.Notifier {
	if c.WebhookURL == "" {
		return slack.NewNop()
	}
	return slack.NewNotifier(c.WebhookURL)
}
