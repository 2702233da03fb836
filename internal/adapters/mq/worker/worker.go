// Package worker drives periodic work on a single goroutine.
//
// A TickWorker calls its Task once per interval until the context is
// cancelled or Shutdown is called. Task errors are logged and counted; they
// never stop the loop.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/doorlog/pkg/logger"
	"github.com/okian/doorlog/pkg/metrics"
)

const defaultInterval = 100 * time.Millisecond

// Task is one unit of periodic work.
type Task func(ctx context.Context) error

// Worker runs a loop until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or Shutdown is called.
	Run(ctx context.Context)

	// Shutdown stops the loop and waits for the in-flight task to finish.
	Shutdown(ctx context.Context) error
}

// TickWorker implements Worker with a fixed-interval ticker.
type TickWorker struct {
	task     Task
	interval time.Duration
	name     string

	// Shutdown control
	shutdown     chan struct{}
	done         chan struct{}
	shutdownOnce sync.Once

	// Counters, owned by the loop goroutine until done is closed.
	ticks  int64
	errors int64

	logger logger.Logger
}

// NewTickWorker creates a worker that runs task every interval.
func NewTickWorker(interval time.Duration, task Task, opts ...Option) *TickWorker {
	if interval <= 0 {
		interval = defaultInterval
	}
	w := &TickWorker{
		task:     task,
		interval: interval,
		name:     "tick",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop. It blocks until stopped.
func (w *TickWorker) Run(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

// Shutdown signals the loop and waits for it to exit.
func (w *TickWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed when Run returns.
func (w *TickWorker) Done() <-chan struct{} {
	return w.done
}

// Stats returns the number of ticks run and how many failed. Only call it
// after Done is closed.
func (w *TickWorker) Stats() (ticks, failed int64) {
	return w.ticks, w.errors
}

func (w *TickWorker) runOnce(ctx context.Context) {
	start := time.Now()
	err := w.task(ctx)
	metrics.RecordTick(float64(time.Since(start).Microseconds()) / 1000)

	w.ticks++
	if err != nil {
		w.errors++
		w.logger.Error(ctx, "tick failed", logger.Error(err))
	}
}
