package scoring

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/okian/gitstart/internal/adapters/inference"
	"github.com/okian/gitstart/internal/domain/model"
	"github.com/okian/gitstart/internal/domain/normalize"
)

// Model scorer identity.
const (
	ModelName    = "model"
	ModelVersion = "model-v1"
)

// MaxSuggestions caps the hints kept from one response.
const MaxSuggestions = 5

// ModelOption applies a configuration option to the ModelScorer.
type ModelOption func(*ModelScorer)

// WithModelName overrides the scorer name, for running several models.
func WithModelName(name string) ModelOption {
	return func(m *ModelScorer) {
		if name != "" {
			m.name = name
		}
	}
}

// WithModelClock replaces time.Now for result timestamps.
func WithModelClock(now func() time.Time) ModelOption {
	return func(m *ModelScorer) {
		if now != nil {
			m.now = now
		}
	}
}

// ModelScorer delegates to the external inference service.
type ModelScorer struct {
	client inference.Client
	name   string
	now    func() time.Time
}

// NewModelScorer creates a scorer over client.
func NewModelScorer(client inference.Client, opts ...ModelOption) *ModelScorer {
	m := &ModelScorer{client: client, name: ModelName, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name implements Scorer.
func (m *ModelScorer) Name() string { return m.name }

// Score implements Scorer. The context deadline is forwarded to the service.
func (m *ModelScorer) Score(ctx context.Context, in Input) (model.ScoreResult, error) {
	op := "scoring." + m.name
	if len(strings.TrimSpace(string(in.Content))) == 0 {
		return model.ScoreResult{}, model.NewKind(op, model.ErrInvalidInput)
	}

	req := inference.Request{
		Kind:     string(in.Kind),
		Language: in.Language,
		Content:  string(in.Content),
	}
	if dl, ok := ctx.Deadline(); ok {
		req.Deadline = dl
	}

	resp, err := m.client.Classify(ctx, req)
	if err != nil {
		return model.ScoreResult{}, classifyError(op, err)
	}

	res := model.ScoreResult{
		Scorer:        m.name,
		ScorerVersion: ModelVersion,
		Confidence:    math.Max(0, math.Min(1, resp.Confidence)),
		ComputedAt:    m.now().UTC(),
		Suggestions:   cleanSuggestions(resp.Suggestions),
	}
	if resp.Numeric() {
		res.Kind = model.ValueNumeric
		res.Value = resp.Score
		res.Max = resp.Max
	} else {
		res.Kind = model.ValueCategorical
		res.Label = strings.ToLower(strings.TrimSpace(resp.Label))
		// A label off the ordinal scale would be cached and then ignored.
		if _, ok := normalize.LabelValue(res.Label); !ok {
			return model.ScoreResult{}, model.Wrap(op, fmt.Errorf("%w: unknown label %q", inference.ErrBadResponse, resp.Label))
		}
	}
	return res, nil
}

// cleanSuggestions trims list markers and blanks, keeping at most MaxSuggestions.
func cleanSuggestions(in []string) []string {
	var out []string
	for _, s := range in {
		s = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(s), "-*"))
		if s == "" {
			continue
		}
		out = append(out, s)
		if len(out) == MaxSuggestions {
			break
		}
	}
	return out
}

// classifyError maps inference failures onto pipeline error kinds.
func classifyError(op string, err error) error {
	switch {
	case errors.Is(err, inference.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return model.WrapKind(op, model.ErrAdapterTimeout, err)
	case errors.Is(err, inference.ErrRateLimited), errors.Is(err, inference.ErrUnavailable):
		return model.WrapKind(op, model.ErrAdapterUnavailable, err)
	case errors.Is(err, inference.ErrMalformedInput):
		return model.WrapKind(op, model.ErrInvalidInput, err)
	default:
		return model.Wrap(op, err)
	}
}
