package service

import (
	"context"
	"fmt"

	"github.com/okian/gitstart/internal/adapters/cachestore"
	"github.com/okian/gitstart/internal/adapters/catalog"
	"github.com/okian/gitstart/internal/adapters/inference"
	"github.com/okian/gitstart/internal/config"
	"github.com/okian/gitstart/internal/domain/pipeline"
	"github.com/okian/gitstart/internal/domain/ranking"
	"github.com/okian/gitstart/internal/domain/scorecache"
	"github.com/okian/gitstart/internal/domain/scoring"
	"github.com/okian/gitstart/pkg/logger"
)

// FromConfig assembles a Service and all of its collaborators from cfg.
// The returned service is not started.
func FromConfig(ctx context.Context, cfg *config.Config, log logger.Logger) (svc *Service, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Get()
	}

	var opts []Option

	store, closer, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		opts = append(opts, WithCloser(closer))
		defer func() {
			if err != nil {
				_ = closer()
			}
		}()
	}

	cache, err := scorecache.New(store,
		scorecache.WithTTL(cfg.CacheTTL()),
		scorecache.WithPartialTTL(cfg.PartialTTL()),
		scorecache.WithLogger(log.Named("scorecache")),
	)
	if err != nil {
		return nil, err
	}

	p, err := pipeline.New(cache, buildScorers(cfg),
		pipeline.WithDeadline(cfg.PipelineDeadline()),
		pipeline.WithConcurrency(cfg.AnalyzeConcurrency),
		pipeline.WithLowConfidenceThreshold(cfg.LowConfidenceThreshold),
		pipeline.WithBeginnerThreshold(cfg.BeginnerThreshold),
		pipeline.WithLogger(log.Named("pipeline")),
	)
	if err != nil {
		return nil, err
	}

	cat := catalog.Empty()
	if cfg.CatalogPath != "" {
		if cat, err = catalog.Load(cfg.CatalogPath); err != nil {
			return nil, err
		}
	}

	opts = append(opts,
		WithCatalog(cat),
		WithScorerVersion(cfg.ScorerVersion),
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.QueueSize),
		WithDedupeSize(cfg.DedupeSize),
		WithMaxCandidates(cfg.MaxCandidates),
		WithRanking(ranking.Options{Stretch: cfg.StretchMargin, TierWidth: cfg.TierWidth}),
		WithWarmTimeout(cfg.PipelineDeadline()),
		WithLogger(log.Named("service")),
	)
	return New(p, cache, opts...)
}

func buildStore(ctx context.Context, cfg *config.Config) (scorecache.Store, func() error, error) {
	switch cfg.CacheBackend {
	case config.CacheBackendRedis:
		client, err := cachestore.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return cachestore.NewRedisStore(client), client.Close, nil
	case config.CacheBackendMemory:
		return cachestore.NewMemoryStore(cachestore.WithMaxEntries(cfg.CacheMaxEntries)), nil, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown cache_backend %q", config.ErrInvalidConfig, cfg.CacheBackend)
	}
}

// buildScorers returns the heuristic scorer and, when an inference URL is
// configured, the model scorer.
func buildScorers(cfg *config.Config) []scoring.Scorer {
	scorers := []scoring.Scorer{
		scoring.NewAdapter(scoring.NewHeuristicScorer(), scoring.Policy{
			Timeout:  cfg.HeuristicTimeout(),
			Attempts: 1,
		}),
	}
	if cfg.InferenceURL == "" {
		return scorers
	}
	client := inference.NewHTTPClient(cfg.InferenceURL, cfg.InferenceAPIKey,
		inference.WithRateLimit(cfg.InferenceRPS, cfg.InferenceBurst))
	return append(scorers, scoring.NewAdapter(scoring.NewModelScorer(client), scoring.Policy{
		Timeout:      cfg.ModelTimeout(),
		Attempts:     uint(cfg.ModelAttempts),
		InitialDelay: cfg.RetryInitialDelay(),
		MaxDelay:     cfg.RetryMaxDelay(),
	}))
}
