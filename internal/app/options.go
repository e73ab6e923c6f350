package service

import (
	"time"

	"github.com/okian/gitstart/internal/adapters/catalog"
	"github.com/okian/gitstart/internal/domain/ranking"
	"github.com/okian/gitstart/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithCatalog sets where issues, artifacts and profiles are looked up.
func WithCatalog(c catalog.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithScorerVersion sets the version mixed into fingerprints.
func WithScorerVersion(v string) Option {
	return func(s *Service) {
		if v != "" {
			s.scorerVersion = v
		}
	}
}

// WithWorkerCount sets the number of warm workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending warm jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many pending warm keys are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithWarmTimeout bounds a single warm job.
func WithWarmTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.warmTimeout = d
		}
	}
}

// WithRanking sets the ranking options. Limit is ignored; callers pass it per request.
func WithRanking(opts ranking.Options) Option {
	return func(s *Service) {
		opts.Limit = 0
		s.ranking = opts
	}
}

// WithMaxCandidates caps how many issues one recommendation may consider.
func WithMaxCandidates(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxCandidates = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithIDGenerator replaces the request and job ID generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCloser registers a resource released by Stop, such as a Redis client.
func WithCloser(fn func() error) Option {
	return func(s *Service) {
		if fn != nil {
			s.closers = append(s.closers, fn)
		}
	}
}
