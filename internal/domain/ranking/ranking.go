// Package ranking orders candidate issues for a contributor.
//
// Ordering: demoted fitness DESC, non-flagged before flagged, composite
// confidence DESC, issue ID ASC. Every float in the key is quantized to fixed
// point first so two candidates compare equal only when they are equal.
//
// Demotion is one tier: a low-confidence candidate's key is its fitness minus
// TierWidth. It therefore ranks below every non-flagged candidate whose
// fitness is at least its own minus TierWidth, equal fitness included, and
// leads a non-flagged candidate only when it is fitter by more than
// TierWidth. A TierWidth of 1 puts every flagged candidate last.
package ranking

import (
	"math"
	"sort"

	"github.com/okian/gitstart/internal/domain/model"
)

// Defaults for ranking options.
const (
	DefaultStretch          = 0.1
	DefaultTierWidth        = 0.05
	DefaultEmptyProficiency = 0.25
	fixedPointScale         = 1e9
)

// Candidate is one issue with its normalized score.
type Candidate struct {
	Issue model.IssueText
	Score model.NormalizedScore
}

// Options tunes the ranking.
type Options struct {
	// Stretch pushes the target above the contributor's current level.
	Stretch float64
	// TierWidth is how far a low-confidence candidate's key is lowered.
	TierWidth float64
	// Limit keeps only the first Limit items; zero keeps all.
	Limit int
}

// DefaultOptions returns the standard ranking options.
func DefaultOptions() Options {
	return Options{Stretch: DefaultStretch, TierWidth: DefaultTierWidth}
}

type fixed int64

func toFixed(x float64) fixed {
	if math.IsNaN(x) {
		return 0
	}
	scaled := math.Round(x * fixedPointScale)
	if scaled > math.MaxInt64 {
		return fixed(math.MaxInt64)
	}
	if scaled < math.MinInt64 {
		return fixed(math.MinInt64)
	}
	return fixed(scaled)
}

// Proficiency returns the profile's proficiency for lang. Unknown languages
// fall back to the mean of the known proficiencies, and an empty profile to
// DefaultEmptyProficiency.
func Proficiency(p model.ContributorProfile, lang string) float64 {
	if v, ok := p.Proficiency[lang]; ok && lang != "" {
		return clamp01(v)
	}
	if len(p.Proficiency) == 0 {
		return DefaultEmptyProficiency
	}
	keys := make([]string, 0, len(p.Proficiency))
	for k := range p.Proficiency {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sum float64
	for _, k := range keys {
		sum += clamp01(p.Proficiency[k])
	}
	return sum / float64(len(keys))
}

// TargetDifficulty is the difficulty a contributor should be offered in
// lang: halfway between proficiency and completed-issue history, plus stretch.
func TargetDifficulty(p model.ContributorProfile, lang string, stretch float64) float64 {
	prof := Proficiency(p, lang)
	hist := prof
	if len(p.CompletedDifficulties) > 0 {
		var sum float64
		for _, d := range p.CompletedDifficulties {
			sum += clamp01(d)
		}
		hist = sum / float64(len(p.CompletedDifficulties))
	}
	return clamp01((prof+hist)/2 + stretch)
}

// Fitness is 1 minus the distance between difficulty and target.
func Fitness(difficulty, target float64) float64 {
	return 1 - math.Abs(clamp01(difficulty)-clamp01(target))
}

type ranked struct {
	item model.RecommendationItem
	key  fixed
	conf fixed
}

func before(a, b ranked) bool {
	if a.key != b.key {
		return a.key > b.key
	}
	if a.item.LowConfidence != b.item.LowConfidence {
		return !a.item.LowConfidence
	}
	if a.conf != b.conf {
		return a.conf > b.conf
	}
	return a.item.IssueID < b.item.IssueID
}

// Rank scores every candidate against the profile and returns them in
// recommendation order with 1-based ranks. Duplicate issue IDs keep the
// first occurrence.
func Rank(p model.ContributorProfile, candidates []Candidate, opts Options) []model.RecommendationItem {
	seen := make(map[string]struct{}, len(candidates))
	rows := make([]ranked, 0, len(candidates))
	for _, c := range candidates {
		if _, dup := seen[c.Issue.ID]; dup {
			continue
		}
		seen[c.Issue.ID] = struct{}{}

		lang := DetectLanguage(c.Issue)
		fit := Fitness(c.Score.Difficulty, TargetDifficulty(p, lang, opts.Stretch))
		key := fit
		if c.Score.LowConfidence {
			key -= opts.TierWidth
		}
		rows = append(rows, ranked{
			item: model.RecommendationItem{
				IssueID:       c.Issue.ID,
				Language:      lang,
				Difficulty:    c.Score.Difficulty,
				Fitness:       fit,
				Confidence:    c.Score.Confidence,
				LowConfidence: c.Score.LowConfidence,
			},
			key:  toFixed(key),
			conf: toFixed(c.Score.Confidence),
		})
	}

	sort.Slice(rows, func(i, j int) bool { return before(rows[i], rows[j]) })

	if opts.Limit > 0 && len(rows) > opts.Limit {
		rows = rows[:opts.Limit]
	}
	out := make([]model.RecommendationItem, len(rows))
	for i, r := range rows {
		r.item.Rank = i + 1
		out[i] = r.item
	}
	return out
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
