// Package worker runs cache-warming jobs pulled from the queue.
package worker

import (
	"time"

	"github.com/okian/gitstart/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithJobTimeout bounds how long a single job may run.
func WithJobTimeout(d time.Duration) Option {
	return func(w *InMemoryWorker) {
		if d > 0 {
			w.jobTimeout = d
		}
	}
}

// WithReleaser sets what is told when a job is finished, so its dedupe key
// can be reused.
func WithReleaser(r Releaser) Option {
	return func(w *InMemoryWorker) {
		if r != nil {
			w.releaser = r
		}
	}
}
