package loadgen

import (
	"context"
	"fmt"
	"net/http"

	"github.com/okian/gitstart/pkg/logger"
)

// verifyAnalyses checks ranges and tier ordering, then re-analyzes a sample
// and expects cache hits with unchanged fingerprints.
func verifyAnalyses(ctx context.Context, c *httpClient, cfg *Config, issues []Issue, first []analysis, stats *Stats) error {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for i, a := range first {
		if a.Fingerprint == "" {
			continue
		}
		d := a.Normalized.Difficulty
		if d < 0 || d > 1 {
			return fmt.Errorf("%w: %s difficulty %.3f out of range", ErrInconsistent, a.SubjectID, d)
		}
		sums[issues[i].Tier] += d
		counts[issues[i].Tier]++
	}
	stats.Difficulty = make(map[string]float64, len(sums))
	for tier, sum := range sums {
		stats.Difficulty[tier] = sum / float64(counts[tier])
	}
	if counts[TierTrivial] > 0 && counts[TierRefactor] > 0 &&
		stats.Difficulty[TierTrivial] > stats.Difficulty[TierRefactor] {
		logger.Get().Warn(ctx, "trivial issues scored harder than refactors",
			logger.Float64("trivial", stats.Difficulty[TierTrivial]),
			logger.Float64("refactor", stats.Difficulty[TierRefactor]))
	}

	if cfg.CheckRate == 0 {
		return nil
	}
	step := max(1, int(1/cfg.CheckRate))
	for i := 0; i < len(issues); i += step {
		if first[i].Fingerprint == "" {
			continue
		}
		again, err := analyzeOne(ctx, c, issues[i])
		if err != nil {
			return fmt.Errorf("re-analyze %s: %w", issues[i].ID, err)
		}
		stats.CacheChecked++
		if again.Fingerprint != first[i].Fingerprint {
			return fmt.Errorf("%w: %s fingerprint changed from %s to %s",
				ErrInconsistent, issues[i].ID, first[i].Fingerprint, again.Fingerprint)
		}
		if again.Normalized.Difficulty != first[i].Normalized.Difficulty {
			return fmt.Errorf("%w: %s difficulty changed on re-analysis", ErrInconsistent, issues[i].ID)
		}
		if again.Cached {
			stats.CacheHits++
		}
	}
	return nil
}

// verifyRecommendation asks for a catalog-wide recommendation and checks
// that ranks are contiguous and issues are not repeated.
func verifyRecommendation(ctx context.Context, c *httpClient, profileID string, stats *Stats) error {
	var rec recommendation
	status, err := c.do(ctx, http.MethodPost, "/recommend", map[string]any{"profile_id": profileID}, &rec)
	if err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("recommend: unexpected status %d", status)
	}

	seen := make(map[string]struct{}, len(rec.Items))
	for i, it := range rec.Items {
		if it.Rank != i+1 {
			return fmt.Errorf("%w: item %d has rank %d", ErrInconsistent, i, it.Rank)
		}
		if _, dup := seen[it.IssueID]; dup {
			return fmt.Errorf("%w: issue %s recommended twice", ErrInconsistent, it.IssueID)
		}
		seen[it.IssueID] = struct{}{}
	}
	stats.Recommended = len(rec.Items)
	stats.Unscored = len(rec.Unscored)
	return nil
}
