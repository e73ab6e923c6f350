// Package service provides the core business service that implements
// the dependencies required by the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/gitstart/internal/adapters/catalog"
	"github.com/okian/gitstart/internal/adapters/mq/queue"
	"github.com/okian/gitstart/internal/adapters/mq/worker"
	"github.com/okian/gitstart/internal/domain/dedupe"
	"github.com/okian/gitstart/internal/domain/fingerprint"
	"github.com/okian/gitstart/internal/domain/model"
	"github.com/okian/gitstart/internal/domain/pipeline"
	"github.com/okian/gitstart/internal/domain/ranking"
	"github.com/okian/gitstart/internal/domain/scorecache"
	"github.com/okian/gitstart/pkg/logger"
	"github.com/okian/gitstart/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultScorerVersion = "v1"
	defaultWorkerCount   = 4
	defaultQueueSize     = 10_000
	defaultDedupeSize    = 100_000
	defaultWarmTimeout   = 30 * time.Second
	defaultMaxCandidates = 500
)

// warmer adapts the pipeline to worker.Warmer.
type warmer struct {
	s *Service
}

func (w warmer) Warm(ctx context.Context, j worker.Job) error {
	_, err := w.s.pipeline.Analyze(ctx, issueSubject(j.Issue), j.ScorerVersion)
	return err
}

// Service ties the catalog, the analysis pipeline and the cache-warming
// workers together.
type Service struct {
	mu sync.RWMutex

	// Core components
	catalog  catalog.Catalog
	pipeline *pipeline.Pipeline
	cache    *scorecache.Cache
	deduper  dedupe.Deduper
	queue    queue.Queue
	pool     *worker.Pool

	// Configuration
	scorerVersion string
	workerCount   int
	queueSize     int
	dedupeSize    int
	warmTimeout   time.Duration
	maxCandidates int
	ranking       ranking.Options

	// State
	started   bool
	startedAt time.Time
	cancel    context.CancelFunc
	closers   []func() error

	newID  func() string
	now    func() time.Time
	logger logger.Logger
}

// New constructs a Service over a pipeline and the cache it writes to.
func New(p *pipeline.Pipeline, cache *scorecache.Cache, opts ...Option) (*Service, error) {
	if p == nil || cache == nil {
		return nil, ErrNoPipeline
	}
	s := &Service{
		pipeline:      p,
		cache:         cache,
		catalog:       catalog.Empty(),
		scorerVersion: defaultScorerVersion,
		workerCount:   defaultWorkerCount,
		queueSize:     defaultQueueSize,
		dedupeSize:    defaultDedupeSize,
		warmTimeout:   defaultWarmTimeout,
		maxCandidates: defaultMaxCandidates,
		ranking:       ranking.DefaultOptions(),
		newID:         uuid.NewString,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s, nil
}

// Start creates the warm queue and starts its workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, warmer{s: s},
		worker.WithReleaser(s.deduper),
		worker.WithJobTimeout(s.warmTimeout),
	)

	// Workers outlive the caller's ctx; Stop ends them.
	wctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.pool.Start(wctx)

	s.started = true
	s.startedAt = s.now()
	s.logger.Info(ctx, "service started",
		logger.String("scorer_version", s.scorerVersion),
		logger.Any("scorers", s.pipeline.Scorers()),
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
	)
	return nil
}

// Stop drains pending warm jobs and releases resources. It is safe to call
// on a service that was never started.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := context.Background()
	defer s.runClosers(ctx)

	if !s.started {
		return
	}
	s.logger.Info(ctx, "stopping service...")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
	}
	s.cancel()

	s.started = false
	s.logger.Info(ctx, "service stopped")
}

// runClosers releases external resources. Callers hold s.mu.
func (s *Service) runClosers(ctx context.Context) {
	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil {
			s.logger.Warn(ctx, "close failed", logger.Error(err))
		}
	}
	s.closers = nil
}

// ScorerVersion returns the version mixed into fingerprints.
func (s *Service) ScorerVersion() string { return s.scorerVersion }

// Analyze scores one artifact or issue.
func (s *Service) Analyze(ctx context.Context, req AnalyzeRequest) (pipeline.Analysis, error) {
	sub, err := s.subject(ctx, req)
	if err != nil {
		return pipeline.Analysis{}, err
	}
	return s.pipeline.Analyze(ctx, sub, s.scorerVersion)
}

// Recommend ranks candidate issues for a contributor. Issues that cannot be
// scored in time are listed as unscored and the answer is marked partial.
func (s *Service) Recommend(ctx context.Context, req RecommendRequest) (model.Recommendation, error) {
	const op = "service.recommend"
	start := time.Now()
	defer func() {
		metrics.RecordRecommendationLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if req.ProfileID == "" {
		return model.Recommendation{}, model.WrapKind(op, model.ErrInvalidInput, errors.New("profile_id is required"))
	}
	if req.Limit < 0 {
		return model.Recommendation{}, model.WrapKind(op, model.ErrInvalidInput, errors.New("limit must not be negative"))
	}
	profile, err := s.catalog.Profile(ctx, req.ProfileID)
	if err != nil {
		metrics.RecordRecommendation("profile_not_found")
		return model.Recommendation{}, err
	}

	issues, missing, err := s.candidates(ctx, req.IssueIDs)
	if err != nil {
		return model.Recommendation{}, err
	}
	if len(issues) > s.maxCandidates {
		return model.Recommendation{}, model.WrapKind(op, model.ErrInvalidInput,
			fmt.Errorf("%w: %d > %d", ErrTooManyCandidates, len(issues), s.maxCandidates))
	}

	subjects := make([]model.Subject, len(issues))
	for i, is := range issues {
		subjects[i] = issueSubject(is)
	}
	batch := s.pipeline.ScoreMany(ctx, subjects, s.scorerVersion)

	cands := make([]ranking.Candidate, 0, len(issues))
	for _, is := range issues {
		if a, ok := batch.Analyses[is.ID]; ok {
			cands = append(cands, ranking.Candidate{Issue: is, Score: a.Normalized})
		}
	}
	opts := s.ranking
	opts.Limit = req.Limit
	items := ranking.Rank(profile, cands, opts)

	unscored := append(missing, batch.Unscored...)
	rec := model.Recommendation{
		RequestID:   s.newID(),
		ProfileID:   profile.ID,
		Items:       items,
		Partial:     len(unscored) > 0,
		Unscored:    unscored,
		GeneratedAt: s.now().UTC(),
	}

	low := 0
	for _, it := range items {
		if it.LowConfidence {
			low++
		}
	}
	metrics.RecordLowConfidenceItems(low)
	outcome := "complete"
	if rec.Partial {
		outcome = "partial"
	}
	metrics.RecordRecommendation(outcome)
	s.logger.Info(ctx, "recommendation served",
		logger.String("request_id", rec.RequestID),
		logger.String("profile", profile.ID),
		logger.Int("items", len(items)),
		logger.Int("unscored", len(unscored)),
	)
	return rec, nil
}

// candidates resolves issue IDs against the catalog. Unknown IDs are
// returned separately rather than failing the request.
func (s *Service) candidates(ctx context.Context, ids []string) ([]model.IssueText, []string, error) {
	if len(ids) == 0 {
		all, err := s.catalog.Issues(ctx)
		return all, nil, err
	}
	var (
		issues  []model.IssueText
		missing []string
	)
	for _, id := range ids {
		is, err := s.catalog.Issue(ctx, id)
		switch {
		case errors.Is(err, model.ErrNotFound):
			missing = append(missing, id)
		case err != nil:
			return nil, nil, err
		default:
			issues = append(issues, is)
		}
	}
	return issues, missing, nil
}

// Warm queues issues for background scoring. Issues already pending are
// reported as duplicates; issues that do not fit in the queue are rejected.
func (s *Service) Warm(ctx context.Context, req WarmRequest) (WarmResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return WarmResult{}, ErrNotStarted
	}

	issues := append([]model.IssueText(nil), req.Issues...)
	for _, id := range req.IssueIDs {
		is, err := s.catalog.Issue(ctx, id)
		if err != nil {
			return WarmResult{}, err
		}
		issues = append(issues, is)
	}

	res := WarmResult{Queued: []string{}}
	for _, is := range issues {
		if is.ID == "" || (is.Title == "" && is.Body == "") {
			res.Invalid = append(res.Invalid, is.ID)
			continue
		}
		job := model.WarmJob{
			JobID:         s.newID(),
			Issue:         is,
			ScorerVersion: s.scorerVersion,
			EnqueuedAt:    s.now(),
		}
		metrics.RecordWarmRequest()
		if s.deduper.SeenAndRecord(ctx, job.DedupeKey()) {
			metrics.RecordWarmDuplicate()
			res.Duplicates = append(res.Duplicates, is.ID)
			continue
		}
		if err := s.queue.Enqueue(ctx, job); err != nil {
			s.deduper.Unrecord(ctx, job.DedupeKey())
			s.logger.Warn(ctx, "warm job rejected", logger.String("issue", is.ID), logger.Error(err))
			res.Rejected = append(res.Rejected, is.ID)
			continue
		}
		res.Queued = append(res.Queued, is.ID)
		res.JobIDs = append(res.JobIDs, job.JobID)
	}
	return res, nil
}

// Invalidate drops the cached scores for a fingerprint.
func (s *Service) Invalidate(ctx context.Context, raw string) error {
	fp, err := fingerprint.Parse(raw)
	if err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx, fp); err != nil {
		return err
	}
	s.logger.Info(ctx, "cache entry invalidated", logger.String("fingerprint", fp.Short()))
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cs := s.cache.Stats()
	stats := map[string]interface{}{
		"started":       s.started,
		"scorerVersion": s.scorerVersion,
		"scorers":       s.pipeline.Scorers(),
		"workerCount":   s.workerCount,
		"queueSize":     s.queueSize,
		"cacheHits":     cs.Hits,
		"cacheMisses":   cs.Misses,
		"cacheJoins":    cs.Joins,
		"cacheInFlight": cs.InFlight,
	}

	if s.started {
		queueLen := s.queue.Len(context.Background())
		stats["queueLength"] = queueLen
		stats["pendingWarm"] = s.deduper.Size()
		stats["warmProcessed"] = s.pool.Processed()
		stats["warmFailed"] = s.pool.Failed()
		stats["uptimeSeconds"] = int64(s.now().Sub(s.startedAt).Seconds())

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateWorkerCount(s.workerCount)
	}
	return stats
}
