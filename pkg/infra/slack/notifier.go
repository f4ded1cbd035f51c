package slack

import (
	"context"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/onnxify/pkg/domain/interfaces"
	"github.com/m-mizutani/onnxify/pkg/domain/model"
	"github.com/slack-go/slack"
)

type notifier struct {
	webhookURL string
}

// NewNotifier creates a Notifier posting to a Slack incoming webhook
func NewNotifier(webhookURL string) interfaces.Notifier {
	return &notifier{webhookURL: webhookURL}
}

// Notify posts a summary of a finished job
func (n *notifier) Notify(ctx context.Context, job *model.Job) error {
	msg := &slack.WebhookMessage{
		Text: formatJob(job),
	}
	if err := slack.PostWebhookContext(ctx, n.webhookURL, msg); err != nil {
		return goerr.Wrap(err, "failed to post slack webhook", goerr.V("job_id", job.ID))
	}
	return nil
}

func formatJob(job *model.Job) string {
	elapsed := job.FinishedAt.Sub(job.StartedAt).Round(time.Second)

	switch job.Stage {
	case model.StageDone:
		return fmt.Sprintf(":white_check_mark: ONNX upload for <%s|%s> finished in %s (job `%s`)",
			job.ModelURL, job.ModelID, elapsed, job.ID)
	case model.StageFailed:
		return fmt.Sprintf(":x: ONNX conversion for `%s` failed after %s (job `%s`): %v",
			job.ModelID, elapsed, job.ID, job.Err)
	default:
		return fmt.Sprintf("Job `%s` for `%s` is %s", job.ID, job.ModelID, job.Stage)
	}
}

type nopNotifier struct{}

// NewNop creates a Notifier that does nothing, used when no webhook is configured
func NewNop() interfaces.Notifier {
	return nopNotifier{}
}

func (nopNotifier) Notify(context.Context, *model.Job) error {
	return nil
}
