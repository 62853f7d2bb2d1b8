// Package tasks runs work after the triggering request has returned and
// lets the host wait for it before shutting down.
package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/pbaille/sfl/internal/logger"
)

// Runner supervises detached background tasks. Tasks are not persisted:
// anything still running when the process dies is lost.
type Runner struct {
	base   context.Context
	cancel context.CancelFunc
	log    *logger.Logger
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func New(log *logger.Logger) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{base: ctx, cancel: cancel, log: log.With("component", "tasks")}
}

// Go schedules fn on its own goroutine. The context passed to fn is not tied
// to any request; it is cancelled only when Drain gives up. Go returns false
// once the runner is draining.
func (r *Runner) Go(name string, fn func(ctx context.Context)) bool {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.log.Warn("task rejected, runner is draining", "task", name)
		return false
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				r.log.Error("task panicked", "task", name, "panic", fmt.Sprint(rec))
			}
		}()
		fn(r.base)
	}()
	return true
}

// Drain stops accepting tasks and waits for running ones until ctx is done,
// at which point the remaining tasks are cancelled.
func (r *Runner) Drain(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.cancel()
		return nil
	case <-ctx.Done():
		r.cancel()
		return fmt.Errorf("drain background tasks: %w", ctx.Err())
	}
}

// Wait blocks until every scheduled task has returned. Tests use it to
// observe the effects of fire-and-forget work.
func (r *Runner) Wait() {
	r.wg.Wait()
}
