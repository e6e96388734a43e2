// Package background runs fire-and-forget work detached from the request that
// scheduled it.
package background

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const defaultTimeout = 30 * time.Second

// Runner executes detached tasks. Failures are only logged.
type Runner struct {
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewRunner returns a Runner whose tasks are bounded by timeout.
func NewRunner(timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Runner{timeout: timeout}
}

// Go schedules fn without waiting for it. ctx only contributes its values;
// cancelling it does not stop the task.
func (r *Runner) Go(ctx context.Context, name string, fn func(ctx context.Context) error) {
	if r == nil {
		return
	}
	taskCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()
		defer func() {
			if err := recover(); err != nil {
				slog.Error("background task panic", "task", name, "error", err)
			}
		}()

		if err := fn(taskCtx); err != nil {
			slog.Error("background task failed", "task", name, "error", err.Error())
			return
		}
		slog.Debug("background task done", "task", name)
	}()
}

// Wait blocks until every scheduled task has returned.
func (r *Runner) Wait() {
	if r == nil {
		return
	}
	r.wg.Wait()
}
