// Package inference talks to the external difficulty classification service.
package inference

import (
	"context"
	"time"
)

// Request is one classification call.
type Request struct {
	Kind     string    // "code" or "issue"
	Language string    // optional language hint
	Content  string    // normalized text or code
	Deadline time.Time // zero means no deadline is sent
}

// Response is a raw numeric score or a categorical label, plus confidence.
// Numeric responses set Max > 0.
type Response struct {
	Score      float64 `json:"score"`
	Max        float64 `json:"max"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`

	// Suggestions are optional improvement hints, most useful first.
	Suggestions []string `json:"suggestions,omitempty"`
}

// Numeric reports whether the response carries a numeric score.
func (r Response) Numeric() bool { return r.Max > 0 }

// Client classifies content. Failures are one of ErrTimeout, ErrRateLimited,
// ErrMalformedInput, ErrUnavailable or ErrBadResponse.
type Client interface {
	Classify(ctx context.Context, req Request) (Response, error)
}
