package async_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/onnxify/pkg/utils/async"
)

// recordHandler forwards every logged record to a channel
type recordHandler struct {
	records chan slog.Record
}

func newRecordHandler() *recordHandler {
	return &recordHandler{records: make(chan slog.Record, 4)}
}

func (h *recordHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h *recordHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h *recordHandler) WithGroup(string) slog.Handler           { return h }

func (h *recordHandler) Handle(_ context.Context, r slog.Record) error {
	h.records <- r.Clone()
	return nil
}

func (h *recordHandler) next(t *testing.T) (string, map[string]string) {
	t.Helper()
	select {
	case r := <-h.records:
		attrs := map[string]string{}
		r.Attrs(func(a slog.Attr) bool {
			attrs[a.Key] = a.Value.String()
			return true
		})
		return r.Message, attrs
	case <-time.After(time.Second):
		t.Fatal("nothing was logged")
		return "", nil
	}
}

func TestDispatch(t *testing.T) {
	t.Run("failed task is logged with its name", func(t *testing.T) {
		h := newRecordHandler()
		ctx := ctxlog.With(context.Background(), slog.New(h))

		async.Dispatch(ctx, "notify", func(ctx context.Context) error {
			return errors.New("webhook returned 500")
		})

		msg, attrs := h.next(t)
		gt.Value(t, msg).Equal("error in async handler")
		gt.Value(t, attrs["task"]).Equal("notify")
		gt.String(t, attrs["error"]).Contains("webhook returned 500")
	})

	t.Run("task outlives caller cancellation within a deadline", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		result := make(chan error, 1)

		async.Dispatch(ctx, "notify", func(taskCtx context.Context) error {
			cancel()
			deadline, ok := taskCtx.Deadline()
			switch {
			case !ok:
				result <- errors.New("no deadline")
			case time.Until(deadline) > async.DefaultTimeout:
				result <- errors.New("deadline beyond DefaultTimeout")
			default:
				result <- taskCtx.Err()
			}
			return nil
		})

		select {
		case err := <-result:
			gt.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("task did not run")
		}
	})

	t.Run("panic is recovered and logged", func(t *testing.T) {
		h := newRecordHandler()
		ctx := ctxlog.With(context.Background(), slog.New(h))

		async.Dispatch(ctx, "notify", func(ctx context.Context) error {
			panic("slack client exploded")
		})

		msg, attrs := h.next(t)
		gt.Value(t, msg).Equal("panic in async handler")
		gt.Value(t, attrs["task"]).Equal("notify")
		gt.Value(t, attrs["recover"]).Equal("slack client exploded")
		gt.String(t, attrs["stack"]).Contains("goroutine")
	})
}
