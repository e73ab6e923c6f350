package scorecache

import (
	"time"

	"github.com/okian/gitstart/pkg/logger"
)

// Option applies a configuration option to the Cache.
type Option func(*Cache)

// WithTTL sets how long a complete entry stays live.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithPartialTTL sets how long an entry with failed scorers stays live.
// It must not exceed the TTL.
func WithPartialTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.partialTTL = ttl
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.log = l
		}
	}
}
