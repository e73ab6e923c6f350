// Package normalize maps heterogeneous scorer outputs onto one [0,1]
// difficulty scale and combines them.
package normalize

import (
	"math"
	"sort"
	"strings"

	"github.com/okian/gitstart/internal/domain/model"
)

// Default normalization configuration constants.
const (
	DefaultLowConfidenceThreshold = 0.5
)

// labelScale is the fixed ordinal table for categorical difficulty labels.
var labelScale = map[string]float64{
	"trivial": 0.0,
	"easy":    0.25,
	"medium":  0.5,
	"hard":    0.75,
	"expert":  1.0,

	// labels produced by the issue classifier
	"beginner":     0.25,
	"intermediate": 0.5,
	"advanced":     0.75,
}

// LabelValue returns the ordinal value for a categorical label.
func LabelValue(label string) (float64, bool) {
	v, ok := labelScale[strings.ToLower(strings.TrimSpace(label))]
	return v, ok
}

// Options tunes how results are combined.
type Options struct {
	// Expected is the number of scorers that were asked. Missing scorers
	// count as zero confidence in the composite.
	Expected int
	// LowConfidenceThreshold flags composites below it.
	LowConfidenceThreshold float64
}

// DefaultOptions returns the standard options.
func DefaultOptions() Options {
	return Options{LowConfidenceThreshold: DefaultLowConfidenceThreshold}
}

// Value maps one result onto [0,1] using its declared scale.
func Value(r model.ScoreResult) (float64, bool) {
	switch r.Kind {
	case model.ValueNumeric:
		if r.Max <= 0 || math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
			return 0, false
		}
		return clamp01(r.Value / r.Max), true
	case model.ValueCategorical:
		return LabelValue(r.Label)
	default:
		return 0, false
	}
}

type term struct {
	scorer string
	value  float64
	conf   float64
}

// Normalize combines results by confidence-weighted mean. A zero-confidence
// result contributes no weight; if every confidence is zero the unweighted
// mean is used and the score is flagged low-confidence. Terms are reduced in
// a canonical order so the output does not depend on input order.
func Normalize(results []model.ScoreResult, opts Options) (model.NormalizedScore, error) {
	terms := make([]term, 0, len(results))
	for _, r := range results {
		v, ok := Value(r)
		if !ok {
			continue
		}
		terms = append(terms, term{scorer: r.Scorer, value: v, conf: clamp01(r.Confidence)})
	}
	if len(terms) == 0 {
		return model.NormalizedScore{}, model.NewKind("normalize", model.ErrNoUsableScores)
	}

	sort.Slice(terms, func(i, j int) bool {
		a, b := terms[i], terms[j]
		if a.scorer != b.scorer {
			return a.scorer < b.scorer
		}
		if a.value != b.value {
			return a.value < b.value
		}
		return a.conf < b.conf
	})

	var weighted, weights, plain float64
	for _, t := range terms {
		weighted += t.value * t.conf
		weights += t.conf
		plain += t.value
	}

	out := model.NormalizedScore{Scorers: len(terms)}
	if weights == 0 {
		out.Difficulty = plain / float64(len(terms))
		out.LowConfidence = true
		return out, nil
	}
	out.Difficulty = clamp01(weighted / weights)

	denom := len(terms)
	if opts.Expected > denom {
		denom = opts.Expected
	}
	out.Confidence = weights / float64(denom)
	out.LowConfidence = out.Confidence < opts.LowConfidenceThreshold
	return out, nil
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
