package loadgen

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/gitstart/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o600
)

// Run executes a complete load run against cfg.BaseURL.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log := logger.Get().Named("loadgen")
	stats := &Stats{StartTime: time.Now()}
	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("issues", cfg.NumIssues),
		logger.Int("workers", cfg.Workers),
		logger.String("timeout", cfg.Timeout.String()))

	if err := checkServiceHealth(ctx, client); err != nil {
		return nil, err
	}

	issues := generateIssues(cfg.NumIssues, cfg.Seed)
	stats.IssuesGenerated = len(issues)

	if cfg.WarmBatch > 0 {
		if err := warmIssues(ctx, client, issues, cfg.WarmBatch, stats); err != nil {
			return nil, fmt.Errorf("warm failed: %w", err)
		}
		log.Info(ctx, "warm requests sent",
			logger.Int("queued", stats.WarmQueued),
			logger.Int("duplicates", stats.WarmDuplicate),
			logger.Int("rejected", stats.WarmRejected))
	}

	results, failed := analyzeIssues(ctx, client, issues, cfg.Workers)
	stats.AnalyzeFailed = int(failed)
	stats.Analyzed = len(issues) - stats.AnalyzeFailed
	if stats.Analyzed == 0 {
		return nil, fmt.Errorf("%w: every analyze request failed", ErrInconsistent)
	}

	if err := verifyAnalyses(ctx, client, cfg, issues, results, stats); err != nil {
		return nil, err
	}
	if cfg.ProfileID != "" {
		if err := verifyRecommendation(ctx, client, cfg.ProfileID, stats); err != nil {
			return nil, err
		}
	}

	if cfg.OutputFile != "" {
		if err := saveIssuesToFile(cfg.OutputFile, issues); err != nil {
			log.Warn(ctx, "failed to save issues to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	logFinalStats(ctx, log, stats)
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, c *httpClient) error {
	status, err := c.do(ctx, http.MethodGet, "/healthz", nil, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnhealthy, err)
	}
	// The service answers health checks with Prometheus metrics.
	if status != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, status)
	}
	return nil
}

// saveIssuesToFile writes the generated issues as a JSON array.
func saveIssuesToFile(filename string, issues []Issue) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(issues, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal issues: %w", err)
	}
	return os.WriteFile(filename, data, filePermission)
}

func logFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var perSecond, hitRate float64
	if stats.Duration > 0 {
		perSecond = float64(stats.Analyzed) / stats.Duration.Seconds()
	}
	if stats.CacheChecked > 0 {
		hitRate = float64(stats.CacheHits) / float64(stats.CacheChecked)
	}
	log.Info(ctx, "final statistics",
		logger.Int("issuesGenerated", stats.IssuesGenerated),
		logger.Int("warmQueued", stats.WarmQueued),
		logger.Int("warmRejected", stats.WarmRejected),
		logger.Int("analyzed", stats.Analyzed),
		logger.Int("analyzeFailed", stats.AnalyzeFailed),
		logger.Int("cacheChecked", stats.CacheChecked),
		logger.Float64("cacheHitRate", hitRate),
		logger.Int("recommended", stats.Recommended),
		logger.Any("meanDifficulty", stats.Difficulty),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("analyzedPerSecond", perSecond))
}
