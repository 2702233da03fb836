package worker

import (
	"github.com/okian/doorlog/pkg/logger"
)

// Option applies a configuration option to the TickWorker.
type Option func(*TickWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *TickWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(logger logger.Logger) Option {
	return func(w *TickWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}
