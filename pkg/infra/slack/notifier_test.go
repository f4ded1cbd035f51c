package slack_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/onnxify/pkg/domain/model"
	"github.com/m-mizutani/onnxify/pkg/infra/slack"
)

func TestNotifier_Notify(t *testing.T) {
	ctx := context.Background()
	started := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		job      *model.Job
		contains string
	}{
		{
			name: "Done job",
			job: &model.Job{
				ID:         "job-1",
				ModelID:    "org/model-x",
				Stage:      model.StageDone,
				ModelURL:   "https://huggingface.co/org/model-x",
				StartedAt:  started,
				FinishedAt: started.Add(90 * time.Second),
			},
			contains: "<https://huggingface.co/org/model-x|org/model-x> finished in 1m30s",
		},
		{
			name: "Failed job",
			job: &model.Job{
				ID:         "job-2",
				ModelID:    "org/model-y",
				Stage:      model.StageFailed,
				Err:        errors.New("conversion exited with 1"),
				StartedAt:  started,
				FinishedAt: started.Add(5 * time.Second),
			},
			contains: "conversion exited with 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got struct {
				Text string `json:"text"`
			}
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			n := slack.NewNotifier(server.URL)
			gt.NoError(t, n.Notify(ctx, tt.job))
			gt.String(t, got.Text).Contains(tt.contains)
			gt.String(t, got.Text).Contains(tt.job.ID)
		})
	}

	t.Run("webhook error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		n := slack.NewNotifier(server.URL)
		gt.Error(t, n.Notify(ctx, &model.Job{ID: "job-3", Stage: model.StageDone}))
	})
}

func TestNop_Notify(t *testing.T) {
	gt.NoError(t, slack.NewNop().Notify(context.Background(), &model.Job{}))
}
