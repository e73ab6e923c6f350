// Package pipeline composes fingerprinting, caching, scoring and
// normalization into one analysis cycle.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/gitstart/internal/domain/fingerprint"
	"github.com/okian/gitstart/internal/domain/model"
	"github.com/okian/gitstart/internal/domain/normalize"
	"github.com/okian/gitstart/internal/domain/scorecache"
	"github.com/okian/gitstart/internal/domain/scoring"
	"github.com/okian/gitstart/pkg/logger"
	"github.com/okian/gitstart/pkg/metrics"
)

// Default pipeline configuration constants.
const (
	DefaultDeadline          = 10 * time.Second
	DefaultConcurrency       = 8
	DefaultBeginnerThreshold = 0.4
)

// Analysis is the outcome of analyzing one subject.
type Analysis struct {
	SubjectID        string                `json:"subject_id"`
	Kind             model.Kind            `json:"kind"`
	Fingerprint      model.Fingerprint     `json:"fingerprint"`
	Results          []model.ScoreResult   `json:"results"`
	Failed           []string              `json:"failed,omitempty"`
	Normalized       model.NormalizedScore `json:"normalized"`
	Cached           bool                  `json:"cached"`
	BeginnerFriendly bool                  `json:"beginner_friendly"`
	Suggestions      []string              `json:"suggestions,omitempty"`
}

// Batch is the outcome of ScoreMany.
type Batch struct {
	Analyses map[string]Analysis
	Unscored []string
	Partial  bool
}

// Pipeline runs analyses. It holds no state besides the cache it was given.
type Pipeline struct {
	cache       *scorecache.Cache
	scorers     []scoring.Scorer
	deadline    time.Duration
	concurrency int
	threshold   float64
	beginner    float64
	log         logger.Logger
}

// New creates a pipeline over cache running scorers, which are normally
// scoring.Adapters.
func New(cache *scorecache.Cache, scorers []scoring.Scorer, opts ...Option) (*Pipeline, error) {
	if cache == nil {
		return nil, ErrNoCache
	}
	if len(scorers) == 0 {
		return nil, ErrNoScorers
	}
	p := &Pipeline{
		cache:       cache,
		scorers:     scorers,
		deadline:    DefaultDeadline,
		concurrency: DefaultConcurrency,
		threshold:   normalize.DefaultLowConfidenceThreshold,
		beginner:    DefaultBeginnerThreshold,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logger.Get().Named("pipeline")
	}
	return p, nil
}

// Scorers returns the configured scorer names in order.
func (p *Pipeline) Scorers() []string {
	out := make([]string, len(p.scorers))
	for i, s := range p.scorers {
		out[i] = s.Name()
	}
	return out
}

// Analyze scores one subject, serving from the cache when it can.
func (p *Pipeline) Analyze(ctx context.Context, s model.Subject, scorerVersion string) (Analysis, error) {
	start := time.Now()
	a, err := p.analyze(ctx, s, scorerVersion)
	metrics.RecordAnalyzeLatency(float64(time.Since(start).Microseconds()) / 1000)

	outcome := "computed"
	switch {
	case err != nil:
		outcome = "error"
	case a.Cached:
		outcome = "cached"
	}
	metrics.RecordAnalyze(string(s.Kind), outcome)
	return a, err
}

func (p *Pipeline) analyze(ctx context.Context, s model.Subject, scorerVersion string) (Analysis, error) {
	fp, err := fingerprint.ForSubject(s, scorerVersion)
	if err != nil {
		return Analysis{}, err
	}

	entry, cached, err := p.cache.Get(ctx, fp)
	if err != nil {
		p.log.Warn(ctx, "cache lookup failed, recomputing", logger.String("fingerprint", fp.Short()), logger.Error(err))
		metrics.RecordErrorByComponent("pipeline", "cache_get")
	}
	if !cached {
		entry, cached, err = p.cache.ComputeOrJoin(ctx, fp, p.compute(s))
		if err != nil {
			if errors.Is(err, model.ErrAllScorersFailed) {
				metrics.RecordErrorByComponent("pipeline", "all_scorers_failed")
			}
			return Analysis{}, model.Wrap("pipeline.analyze", err)
		}
	}

	ns, err := normalize.Normalize(entry.Results, normalize.Options{
		Expected:               len(p.scorers),
		LowConfidenceThreshold: p.threshold,
	})
	if err != nil {
		return Analysis{}, model.Wrap("pipeline.analyze", err)
	}

	return Analysis{
		SubjectID:        s.ID,
		Kind:             s.Kind,
		Fingerprint:      fp,
		Results:          entry.Results,
		Failed:           entry.Failed,
		Normalized:       ns,
		Cached:           cached,
		BeginnerFriendly: ns.Difficulty <= p.beginner,
		Suggestions:      suggestions(entry.Results),
	}, nil
}

// suggestions merges the hints of every result in result order, dropping repeats.
func suggestions(results []model.ScoreResult) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, r := range results {
		for _, s := range r.Suggestions {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

// compute runs every scorer concurrently and waits for all of them. Any
// subset may fail; only a total failure is an error.
func (p *Pipeline) compute(s model.Subject) scorecache.ComputeFunc {
	return func(ctx context.Context) ([]model.ScoreResult, []string, error) {
		in := scoring.InputFromSubject(s)
		results := make([]model.ScoreResult, len(p.scorers))
		errs := make([]error, len(p.scorers))

		var g errgroup.Group
		for i, sc := range p.scorers {
			g.Go(func() error {
				results[i], errs[i] = sc.Score(ctx, in)
				return nil
			})
		}
		_ = g.Wait()

		var (
			ok     []model.ScoreResult
			failed []string
		)
		for i, err := range errs {
			if err != nil {
				failed = append(failed, p.scorers[i].Name())
				continue
			}
			ok = append(ok, results[i])
		}
		if len(ok) == 0 {
			return nil, failed, model.WrapKind("pipeline.compute", model.ErrAllScorersFailed, errors.Join(errs...))
		}
		if len(failed) > 0 {
			p.log.Info(ctx, "partial scoring",
				logger.String("subject", s.ID),
				logger.Any("failed", failed))
		}
		return ok, failed, nil
	}
}

// ScoreMany analyzes subjects concurrently under the overall deadline.
// Subjects that fail or are still running when it expires are reported as
// unscored and the batch is marked partial.
func (p *Pipeline) ScoreMany(ctx context.Context, subjects []model.Subject, scorerVersion string) Batch {
	dctx, cancel := context.WithTimeout(ctx, p.deadline)
	defer cancel()

	analyses := make([]*Analysis, len(subjects))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(dctx)
	g.SetLimit(p.concurrency)
	for i, s := range subjects {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			a, err := p.Analyze(gctx, s, scorerVersion)
			if err != nil {
				p.log.Warn(gctx, "subject not scored", logger.String("subject", s.ID), logger.Error(err))
				return nil
			}
			mu.Lock()
			analyses[i] = &a
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	out := Batch{Analyses: make(map[string]Analysis, len(subjects))}
	for i, s := range subjects {
		if analyses[i] == nil {
			out.Unscored = append(out.Unscored, s.ID)
			continue
		}
		out.Analyses[s.ID] = *analyses[i]
	}
	if len(out.Unscored) > 0 {
		out.Partial = true
		metrics.RecordPipelinePartial()
		metrics.RecordUnscored(len(out.Unscored))
	}
	return out
}
