package pipeline

import (
	"time"

	"github.com/okian/gitstart/pkg/logger"
)

// Option applies a configuration option to the Pipeline.
type Option func(*Pipeline)

// WithDeadline sets the overall deadline for ScoreMany.
func WithDeadline(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.deadline = d
		}
	}
}

// WithConcurrency bounds how many subjects ScoreMany analyzes at once.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithLowConfidenceThreshold sets the composite confidence below which a
// score is flagged.
func WithLowConfidenceThreshold(th float64) Option {
	return func(p *Pipeline) {
		if th >= 0 && th <= 1 {
			p.threshold = th
		}
	}
}

// WithBeginnerThreshold sets the difficulty at or below which a subject is
// beginner friendly.
func WithBeginnerThreshold(th float64) Option {
	return func(p *Pipeline) {
		if th >= 0 && th <= 1 {
			p.beginner = th
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}
