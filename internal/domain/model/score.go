package model

import "time"

// ValueKind tells whether a ScoreResult carries a number or a label.
type ValueKind string

// Raw value kinds.
const (
	ValueNumeric     ValueKind = "numeric"
	ValueCategorical ValueKind = "categorical"
)

// Fingerprint is a fixed-length hex content hash used as the cache key.
type Fingerprint string

// String returns the hex form.
func (f Fingerprint) String() string { return string(f) }

// Short returns a log-friendly prefix.
func (f Fingerprint) Short() string {
	if len(f) <= 12 {
		return string(f)
	}
	return string(f[:12])
}

// ScoreResult is one scorer's raw output. It is a value type and never
// updated in place; a new score is always a new ScoreResult.
type ScoreResult struct {
	Scorer        string    `json:"scorer"`
	ScorerVersion string    `json:"scorer_version"`
	Kind          ValueKind `json:"kind"`
	Value         float64   `json:"value,omitempty"` // numeric raw value
	Max           float64   `json:"max,omitempty"`   // declared numeric scale maximum
	Label         string    `json:"label,omitempty"` // categorical raw value
	Confidence    float64   `json:"confidence"`      // in [0,1]
	ComputedAt    time.Time `json:"computed_at"`

	// Signals are the structural measurements behind a heuristic score.
	Signals map[string]float64 `json:"signals,omitempty"`
	// Suggestions are improvement hints from a model scorer.
	Suggestions []string `json:"suggestions,omitempty"`
}

// CacheEntry holds every successful result for a fingerprint. Entries are
// written whole or not at all.
type CacheEntry struct {
	Fingerprint Fingerprint   `json:"fingerprint"`
	Results     []ScoreResult `json:"results"`
	Failed      []string      `json:"failed,omitempty"` // scorers that failed after retries
	InsertedAt  time.Time     `json:"inserted_at"`
	ExpiresAt   time.Time     `json:"expires_at"`
}

// Expired reports whether the entry is stale at now.
func (e CacheEntry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

// Complete reports whether every scorer succeeded.
func (e CacheEntry) Complete() bool { return len(e.Failed) == 0 }

// NormalizedScore is the combined [0,1] difficulty for one subject.
type NormalizedScore struct {
	Difficulty    float64 `json:"difficulty"`
	Confidence    float64 `json:"confidence"`
	LowConfidence bool    `json:"low_confidence"`
	Scorers       int     `json:"scorers"` // usable results that contributed
}
