// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - New() returns a Config populated with defaults.
//   - Load(ctx) layers a YAML file and environment variables over the defaults.
//   - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"
	"time"
)

// Cache backends.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ScorerVersion is mixed into every fingerprint. Bump it to orphan all
	// cached scores after a scorer change.
	ScorerVersion string `koanf:"scorer_version"`

	// Score cache.
	CacheBackend      string `koanf:"cache_backend"`
	CacheTTLSeconds   int    `koanf:"cache_ttl_seconds"`
	PartialTTLSeconds int    `koanf:"partial_ttl_seconds"`
	CacheMaxEntries   int    `koanf:"cache_max_entries"`
	RedisAddr         string `koanf:"redis_addr"`
	RedisPassword     string `koanf:"redis_password"`
	RedisDB           int    `koanf:"redis_db"`

	// Adapter timeouts and retry policy.
	HeuristicTimeoutMS  int `koanf:"heuristic_timeout_ms"`
	ModelTimeoutMS      int `koanf:"model_timeout_ms"`
	ModelAttempts       int `koanf:"model_attempts"`
	RetryInitialDelayMS int `koanf:"retry_initial_delay_ms"`
	RetryMaxDelayMS     int `koanf:"retry_max_delay_ms"`

	// Pipeline.
	PipelineDeadlineMS     int     `koanf:"pipeline_deadline_ms"`
	AnalyzeConcurrency     int     `koanf:"analyze_concurrency"`
	LowConfidenceThreshold float64 `koanf:"low_confidence_threshold"`
	// BeginnerThreshold is the difficulty at or below which a subject is
	// beginner friendly.
	BeginnerThreshold float64 `koanf:"beginner_threshold"`

	// Ranking.
	TierWidth     float64 `koanf:"tier_width"`
	StretchMargin float64 `koanf:"stretch_margin"`
	MaxCandidates int     `koanf:"max_candidates"`

	// Inference service. An empty URL disables the model scorer.
	InferenceURL    string  `koanf:"inference_url"`
	InferenceAPIKey string  `koanf:"inference_api_key"`
	InferenceRPS    float64 `koanf:"inference_rps"`
	InferenceBurst  int     `koanf:"inference_burst"`

	// CatalogPath points at the YAML catalog of issues, artifacts and profiles.
	CatalogPath string `koanf:"catalog_path"`

	// Cache warming.
	WorkerCount int `koanf:"worker_count"`
	QueueSize   int `koanf:"queue_size"`
	DedupeSize  int `koanf:"dedupe_size"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		Addr:                   ":9080",
		ScorerVersion:          "v1",
		CacheBackend:           CacheBackendMemory,
		CacheTTLSeconds:        3600,
		PartialTTLSeconds:      600,
		CacheMaxEntries:        10_000,
		RedisAddr:              "localhost:6379",
		HeuristicTimeoutMS:     50,
		ModelTimeoutMS:         5000,
		ModelAttempts:          3,
		RetryInitialDelayMS:    200,
		RetryMaxDelayMS:        2000,
		PipelineDeadlineMS:     10_000,
		AnalyzeConcurrency:     8,
		LowConfidenceThreshold: 0.5,
		BeginnerThreshold:      0.4,
		TierWidth:              0.05,
		StretchMargin:          0.1,
		MaxCandidates:          500,
		InferenceRPS:           10,
		InferenceBurst:         20,
		WorkerCount:            runtime.NumCPU(),
		QueueSize:              10_000,
		DedupeSize:             100_000,
	}
}

// Validate checks ranges and cross-field constraints.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.ScorerVersion == "":
		return fmt.Errorf("%w: scorer_version must not be empty", ErrInvalidConfig)
	case c.CacheBackend != CacheBackendMemory && c.CacheBackend != CacheBackendRedis:
		return fmt.Errorf("%w: unknown cache_backend %q", ErrInvalidConfig, c.CacheBackend)
	case c.CacheBackend == CacheBackendRedis && c.RedisAddr == "":
		return fmt.Errorf("%w: redis_addr is required for the redis backend", ErrInvalidConfig)
	case c.CacheTTLSeconds <= 0 || c.PartialTTLSeconds <= 0:
		return fmt.Errorf("%w: cache ttls must be positive", ErrInvalidConfig)
	case c.PartialTTLSeconds > c.CacheTTLSeconds:
		return fmt.Errorf("%w: partial_ttl_seconds exceeds cache_ttl_seconds", ErrInvalidConfig)
	case c.HeuristicTimeoutMS <= 0 || c.ModelTimeoutMS <= 0 || c.PipelineDeadlineMS <= 0:
		return fmt.Errorf("%w: timeouts must be positive", ErrInvalidConfig)
	case c.ModelAttempts < 1:
		return fmt.Errorf("%w: model_attempts must be at least 1", ErrInvalidConfig)
	case c.RetryInitialDelayMS < 0 || c.RetryMaxDelayMS < c.RetryInitialDelayMS:
		return fmt.Errorf("%w: invalid retry delays", ErrInvalidConfig)
	case c.AnalyzeConcurrency <= 0:
		return fmt.Errorf("%w: analyze_concurrency must be positive", ErrInvalidConfig)
	case c.LowConfidenceThreshold < 0 || c.LowConfidenceThreshold > 1:
		return fmt.Errorf("%w: low_confidence_threshold must be within [0,1]", ErrInvalidConfig)
	case c.BeginnerThreshold < 0 || c.BeginnerThreshold > 1:
		return fmt.Errorf("%w: beginner_threshold must be within [0,1]", ErrInvalidConfig)
	case c.TierWidth < 0 || c.TierWidth > 1 || c.StretchMargin < 0 || c.StretchMargin > 1:
		return fmt.Errorf("%w: tier_width and stretch_margin must be within [0,1]", ErrInvalidConfig)
	case c.MaxCandidates <= 0:
		return fmt.Errorf("%w: max_candidates must be positive", ErrInvalidConfig)
	case c.InferenceURL != "" && (c.InferenceRPS <= 0 || c.InferenceBurst <= 0):
		return fmt.Errorf("%w: inference rate limit must be positive", ErrInvalidConfig)
	case c.WorkerCount <= 0 || c.QueueSize <= 0 || c.DedupeSize <= 0:
		return fmt.Errorf("%w: worker_count, queue_size and dedupe_size must be positive", ErrInvalidConfig)
	}
	return nil
}

// CacheTTL returns the TTL for complete cache entries.
func (c *Config) CacheTTL() time.Duration { return time.Duration(c.CacheTTLSeconds) * time.Second }

// PartialTTL returns the TTL for entries with failed scorers.
func (c *Config) PartialTTL() time.Duration {
	return time.Duration(c.PartialTTLSeconds) * time.Second
}

// PipelineDeadline returns the overall batch deadline.
func (c *Config) PipelineDeadline() time.Duration { return ms(c.PipelineDeadlineMS) }

// HeuristicTimeout returns the per-attempt heuristic timeout.
func (c *Config) HeuristicTimeout() time.Duration { return ms(c.HeuristicTimeoutMS) }

// ModelTimeout returns the per-attempt model timeout.
func (c *Config) ModelTimeout() time.Duration { return ms(c.ModelTimeoutMS) }

// RetryInitialDelay returns the first backoff delay.
func (c *Config) RetryInitialDelay() time.Duration { return ms(c.RetryInitialDelayMS) }

// RetryMaxDelay returns the backoff cap.
func (c *Config) RetryMaxDelay() time.Duration { return ms(c.RetryMaxDelayMS) }

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }
