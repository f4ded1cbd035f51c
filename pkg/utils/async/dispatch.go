package async

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/ctxlog"
)

// DefaultTimeout bounds how long a dispatched task may run
const DefaultTimeout = 30 * time.Second

// Dispatch runs a side task (e.g. a notification) in its own goroutine so the
// caller is neither delayed nor affected by its outcome.
//
//   - The task gets a fresh context carrying the caller's logger, detached from the
//     caller's cancellation and bounded by DefaultTimeout.
//   - Panics are recovered, logged with the stack and reported to Sentry.
//   - Returned errors are logged.
func Dispatch(ctx context.Context, task string, handler func(ctx context.Context) error) {
	newCtx, cancel := newBackgroundContext(ctx, DefaultTimeout)

	go func() {
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()
				logger := ctxlog.From(newCtx)
				logger.Error("panic in async handler",
					"task", task,
					"recover", r,
					"stack", string(stack))
				sentry.CurrentHub().Recover(r)
			}
		}()

		if err := handler(newCtx); err != nil {
			logger := ctxlog.From(newCtx)
			logger.Error("error in async handler", "task", task, "error", err)
		}
	}()
}

// newBackgroundContext creates a context.Background() derived context that keeps
// the ctxlog logger of ctx
func newBackgroundContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	newCtx := ctxlog.With(context.Background(), ctxlog.From(ctx))
	return context.WithTimeout(newCtx, timeout)
}
