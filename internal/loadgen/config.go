// Package loadgen drives a running gitstart server with synthetic issues and
// checks that the answers are consistent.
package loadgen

import (
	"errors"
	"time"
)

// Defaults.
const (
	DefaultBaseURL   = "http://localhost:9080"
	DefaultNumIssues = 1000
	DefaultWarmBatch = 50
	DefaultTimeout   = 30 * time.Second
	DefaultCheckRate = 0.1
)

// Sentinel errors.
var (
	ErrInvalidConfig = errors.New("loadgen: invalid config")
	ErrUnhealthy     = errors.New("loadgen: service unhealthy")
	ErrInconsistent  = errors.New("loadgen: inconsistent results")
)

// Config holds configuration for a load run.
type Config struct {
	BaseURL    string        // base URL of the service
	NumIssues  int           // number of synthetic issues
	Workers    int           // concurrent requests
	WarmBatch  int           // issues per warm request; 0 skips warming
	Timeout    time.Duration // per-request timeout
	ProfileID  string        // when set, a catalog-wide recommendation is requested
	CheckRate  float64       // share of issues re-analyzed to check caching
	Seed       uint64        // generator seed; equal seeds give equal issues
	OutputFile string        // when set, generated issues are saved here
}

func (c *Config) validate() error {
	switch {
	case c.BaseURL == "":
		return errors.Join(ErrInvalidConfig, errors.New("base url must not be empty"))
	case c.NumIssues <= 0:
		return errors.Join(ErrInvalidConfig, errors.New("issue count must be positive"))
	case c.Workers <= 0:
		return errors.Join(ErrInvalidConfig, errors.New("workers must be positive"))
	case c.Timeout <= 0:
		return errors.Join(ErrInvalidConfig, errors.New("timeout must be positive"))
	case c.CheckRate < 0 || c.CheckRate > 1:
		return errors.Join(ErrInvalidConfig, errors.New("check rate must be in [0,1]"))
	}
	return nil
}

// Issue is the wire form of a generated issue.
type Issue struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Body     string   `json:"body"`
	Labels   []string `json:"labels,omitempty"`
	Language string   `json:"language,omitempty"`
	Tier     string   `json:"-"`
}

// Stats holds run statistics.
type Stats struct {
	IssuesGenerated int
	WarmQueued      int
	WarmDuplicate   int
	WarmRejected    int
	Analyzed        int
	AnalyzeFailed   int
	CacheChecked    int
	CacheHits       int
	Recommended     int
	Unscored        int
	Difficulty      map[string]float64 // mean difficulty per tier
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}
