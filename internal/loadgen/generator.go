package loadgen

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// Issue tiers, from trivial to hard.
const (
	TierTrivial  = "trivial"
	TierSmall    = "small"
	TierFeature  = "feature"
	TierRefactor = "refactor"
)

var tiers = []string{TierTrivial, TierSmall, TierFeature, TierRefactor}

var languages = []string{"go", "python", "javascript", "rust", "java"}

var nouns = []string{"parser", "scheduler", "cache", "config loader", "HTTP client", "CLI", "logger", "importer"}

// generateIssues creates n issues. The same seed yields the same issues.
func generateIssues(n int, seed uint64) []Issue {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]Issue, n)
	for i := range out {
		out[i] = generateIssue(rng, i)
	}
	return out
}

func generateIssue(rng *rand.Rand, index int) Issue {
	tier := tiers[rng.IntN(len(tiers))]
	lang := languages[rng.IntN(len(languages))]
	noun := nouns[rng.IntN(len(nouns))]

	is := Issue{
		ID:       fmt.Sprintf("load-%s-%d", tier, index),
		Language: lang,
		Tier:     tier,
	}
	switch tier {
	case TierTrivial:
		is.Title = fmt.Sprintf("Fix typo in %s docs", noun)
		is.Body = fmt.Sprintf("The README section about the %s has a misspelled word.", noun)
		is.Labels = []string{"good first issue", "documentation"}
	case TierSmall:
		is.Title = fmt.Sprintf("%s ignores empty input", noun)
		is.Body = fmt.Sprintf("Passing an empty value to the %s should return an error.\n\n%s",
			noun, fence(lang, 1+rng.IntN(2)))
		is.Labels = []string{"bug", "lang:" + lang}
	case TierFeature:
		is.Title = fmt.Sprintf("Add retry support to the %s", noun)
		is.Body = fmt.Sprintf("The %s should retry transient failures with backoff and expose the attempt count.\n"+
			"This needs changes across the API, configuration and tests.\n\n%s",
			noun, fence(lang, 3+rng.IntN(3)))
		is.Labels = []string{"enhancement", "lang:" + lang}
	default:
		is.Title = fmt.Sprintf("Redesign %s concurrency model", noun)
		is.Body = fmt.Sprintf("The %s holds a global lock. Replace it with sharded state, preserve ordering guarantees, "+
			"handle cancellation and benchmark under contention. Coordinate the migration with downstream users.\n\n%s\n\n%s",
			noun, fence(lang, 6+rng.IntN(4)), fence(lang, 4))
		is.Labels = []string{"help wanted", "performance", "lang:" + lang}
	}
	return is
}

// fence returns a fenced code block with depth nested conditionals.
func fence(lang string, depth int) string {
	var b strings.Builder
	b.WriteString("```" + lang + "\n")
	for i := range depth {
		b.WriteString(strings.Repeat("  ", i))
		fmt.Fprintf(&b, "if x%d > %d {\n", i, i)
	}
	for i := depth - 1; i >= 0; i-- {
		b.WriteString(strings.Repeat("  ", i))
		b.WriteString("}\n")
	}
	b.WriteString("```")
	return b.String()
}
