package pipeline_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/gitstart/internal/adapters/cachestore"
	"github.com/okian/gitstart/internal/domain/model"
	"github.com/okian/gitstart/internal/domain/pipeline"
	"github.com/okian/gitstart/internal/domain/scorecache"
	"github.com/okian/gitstart/internal/domain/scoring"
	"github.com/okian/gitstart/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

// stubScorer returns a fixed result, an error, or blocks until its context ends.
type stubScorer struct {
	name  string
	value float64
	conf  float64
	hints []string
	err   error
	hang  bool
	calls atomic.Int32
}

func (s *stubScorer) Name() string { return s.name }

func (s *stubScorer) Score(ctx context.Context, _ scoring.Input) (model.ScoreResult, error) {
	s.calls.Add(1)
	if s.hang {
		<-ctx.Done()
		return model.ScoreResult{}, model.WrapKind("stub", model.ErrAdapterTimeout, ctx.Err())
	}
	if s.err != nil {
		return model.ScoreResult{}, s.err
	}
	return model.ScoreResult{
		Scorer:        s.name,
		ScorerVersion: s.name + "-v1",
		Kind:          model.ValueNumeric,
		Value:         s.value,
		Max:           1,
		Confidence:    s.conf,
		Suggestions:   s.hints,
	}, nil
}

func newCache(store scorecache.Store) *scorecache.Cache {
	c, err := scorecache.New(store)
	So(err, ShouldBeNil)
	return c
}

// gatedStore reads the underlying store and then holds the answer of the
// next armed Load until released, replaying a lookup that raced a flight.
type gatedStore struct {
	*cachestore.MemoryStore
	armed   atomic.Bool
	held    chan struct{}
	release chan struct{}
}

func newGatedStore() *gatedStore {
	return &gatedStore{
		MemoryStore: cachestore.NewMemoryStore(),
		held:        make(chan struct{}),
		release:     make(chan struct{}),
	}
}

func (g *gatedStore) Load(ctx context.Context, fp model.Fingerprint) (model.CacheEntry, bool, error) {
	entry, ok, err := g.MemoryStore.Load(ctx, fp)
	if g.armed.CompareAndSwap(true, false) {
		close(g.held)
		<-g.release
	}
	return entry, ok, err
}

func issue(id, body string) model.Subject {
	return model.SubjectFromIssue(model.IssueText{ID: id, Title: "t", Body: body})
}

func TestAnalyze(t *testing.T) {
	Convey("Given a pipeline with two scorers", t, func() {
		store := cachestore.NewMemoryStore()
		a := &stubScorer{name: "a", value: 0.2, conf: 0.8}
		b := &stubScorer{name: "b", value: 0.4, conf: 0.8}
		p, err := pipeline.New(newCache(store), []scoring.Scorer{a, b})
		So(err, ShouldBeNil)
		ctx := context.Background()

		Convey("The first analysis computes and the second is served from cache", func() {
			first, err := p.Analyze(ctx, issue("1", "fix typo"), "v1")
			So(err, ShouldBeNil)
			So(first.Cached, ShouldBeFalse)
			So(first.Results, ShouldHaveLength, 2)
			So(first.Normalized.Difficulty, ShouldAlmostEqual, 0.3, 1e-9)
			So(first.BeginnerFriendly, ShouldBeTrue)

			second, err := p.Analyze(ctx, issue("1", "fix typo"), "v1")
			So(err, ShouldBeNil)
			So(second.Cached, ShouldBeTrue)
			So(second.Fingerprint, ShouldEqual, first.Fingerprint)
			So(second.Normalized, ShouldResemble, first.Normalized)
			So(a.calls.Load(), ShouldEqual, 1)
		})

		Convey("A new scorer version misses the cache", func() {
			_, err := p.Analyze(ctx, issue("1", "fix typo"), "v1")
			So(err, ShouldBeNil)
			again, err := p.Analyze(ctx, issue("1", "fix typo"), "v2")
			So(err, ShouldBeNil)
			So(again.Cached, ShouldBeFalse)
			So(a.calls.Load(), ShouldEqual, 2)
		})

		Convey("Empty content is rejected", func() {
			_, err := p.Analyze(ctx, model.Subject{Kind: model.KindCode, ID: "x"}, "v1")
			So(errors.Is(err, model.ErrInvalidInput), ShouldBeTrue)
		})
	})

	Convey("Given scorers that return suggestions", t, func() {
		a := &stubScorer{name: "a", value: 0.2, conf: 0.8, hints: []string{"add tests", "rename x"}}
		b := &stubScorer{name: "b", value: 0.4, conf: 0.8, hints: []string{"rename x", "split main"}}
		p, err := pipeline.New(newCache(cachestore.NewMemoryStore()), []scoring.Scorer{a, b})
		So(err, ShouldBeNil)

		Convey("The analysis merges them without repeats, also when cached", func() {
			first, err := p.Analyze(context.Background(), issue("s", "fix typo"), "v1")
			So(err, ShouldBeNil)
			So(first.Suggestions, ShouldResemble, []string{"add tests", "rename x", "split main"})

			second, err := p.Analyze(context.Background(), issue("s", "fix typo"), "v1")
			So(err, ShouldBeNil)
			So(second.Cached, ShouldBeTrue)
			So(second.Suggestions, ShouldResemble, first.Suggestions)
		})
	})

	Convey("Given one failing scorer", t, func() {
		store := cachestore.NewMemoryStore()
		ok := &stubScorer{name: "ok", value: 0.9, conf: 0.9}
		bad := &stubScorer{name: "bad", err: model.NewKind("stub", model.ErrAdapterUnavailable)}
		p, err := pipeline.New(newCache(store), []scoring.Scorer{ok, bad})
		So(err, ShouldBeNil)

		Convey("The analysis is partial and flagged by coverage", func() {
			res, err := p.Analyze(context.Background(), issue("2", "rewrite scheduler"), "v1")
			So(err, ShouldBeNil)
			So(res.Failed, ShouldResemble, []string{"bad"})
			So(res.Results, ShouldHaveLength, 1)
			So(res.Normalized.Confidence, ShouldAlmostEqual, 0.45, 1e-9)
			So(res.Normalized.LowConfidence, ShouldBeTrue)
			So(res.BeginnerFriendly, ShouldBeFalse)
		})
	})

	Convey("Given scorers that all time out", t, func() {
		store := cachestore.NewMemoryStore()
		s1 := &stubScorer{name: "s1", hang: true}
		s2 := &stubScorer{name: "s2", hang: true}
		p, err := pipeline.New(newCache(store), []scoring.Scorer{s1, s2})
		So(err, ShouldBeNil)

		Convey("The caller gets all-scorers-failed and nothing is cached", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
			defer cancel()
			_, err := p.Analyze(ctx, issue("3", "anything"), "v1")
			So(err, ShouldNotBeNil)
			So(store.Len(), ShouldEqual, 0)
		})
	})

	Convey("Given scorers that fail fast", t, func() {
		store := cachestore.NewMemoryStore()
		e := model.NewKind("stub", model.ErrAdapterTimeout)
		p, err := pipeline.New(newCache(store), []scoring.Scorer{
			&stubScorer{name: "x", err: e},
			&stubScorer{name: "y", err: e},
		})
		So(err, ShouldBeNil)

		Convey("The error is all-scorers-failed and keeps the cause", func() {
			_, err := p.Analyze(context.Background(), issue("4", "anything"), "v1")
			So(errors.Is(err, model.ErrAllScorersFailed), ShouldBeTrue)
			So(errors.Is(err, model.ErrAdapterTimeout), ShouldBeTrue)
			So(store.Len(), ShouldEqual, 0)
		})
	})

	Convey("Given a caller whose cache lookup misses while another caller's flight completes", t, func() {
		store := newGatedStore()
		sc := &stubScorer{name: "a", value: 0.2, conf: 0.9}
		p, err := pipeline.New(newCache(store), []scoring.Scorer{sc})
		So(err, ShouldBeNil)
		ctx := context.Background()
		subject := issue("5", "fix typo in readme")

		store.armed.Store(true)
		late := make(chan pipeline.Analysis, 1)
		lateErr := make(chan error, 1)
		go func() {
			a, err := p.Analyze(ctx, subject, "v1")
			late <- a
			lateErr <- err
		}()
		<-store.held

		first, err := p.Analyze(ctx, subject, "v1")
		So(err, ShouldBeNil)
		So(first.Cached, ShouldBeFalse)
		close(store.release)

		Convey("Then the late caller is served the stored entry and the scorer runs once", func() {
			So(<-lateErr, ShouldBeNil)
			second := <-late
			So(second.Cached, ShouldBeTrue)
			So(second.Results, ShouldResemble, first.Results)
			So(sc.calls.Load(), ShouldEqual, 1)
		})
	})

	Convey("Given code subjects that differ only by language", t, func() {
		sc := &stubScorer{name: "a", value: 0.2, conf: 0.9}
		p, err := pipeline.New(newCache(cachestore.NewMemoryStore()), []scoring.Scorer{sc})
		So(err, ShouldBeNil)
		src := []byte("def f(x):\n    return x\n")
		py := model.Subject{Kind: model.KindCode, ID: "f", Content: src, Language: "python"}
		js := py
		js.Language = "javascript"

		Convey("Then each language is scored and cached separately", func() {
			a, err := p.Analyze(context.Background(), py, "v1")
			So(err, ShouldBeNil)
			b, err := p.Analyze(context.Background(), js, "v1")
			So(err, ShouldBeNil)
			So(b.Cached, ShouldBeFalse)
			So(b.Fingerprint, ShouldNotEqual, a.Fingerprint)
			So(sc.calls.Load(), ShouldEqual, 2)
		})
	})

	Convey("New validates its arguments", t, func() {
		_, err := pipeline.New(nil, []scoring.Scorer{&stubScorer{name: "a"}})
		So(err, ShouldEqual, pipeline.ErrNoCache)
		_, err = pipeline.New(newCache(cachestore.NewMemoryStore()), nil)
		So(err, ShouldEqual, pipeline.ErrNoScorers)
	})
}

func TestScoreMany(t *testing.T) {
	Convey("Given a batch of subjects", t, func() {
		fast := &stubScorer{name: "fast", value: 0.5, conf: 1}
		p, err := pipeline.New(newCache(cachestore.NewMemoryStore()), []scoring.Scorer{fast},
			pipeline.WithConcurrency(2))
		So(err, ShouldBeNil)
		subjects := []model.Subject{
			issue("a", "one"),
			issue("b", "two"),
			issue("c", "three"),
			{Kind: model.KindIssue, ID: "empty"},
		}

		Convey("Scorable subjects are analyzed and the rest are unscored", func() {
			batch := p.ScoreMany(context.Background(), subjects, "v1")
			So(batch.Analyses, ShouldHaveLength, 3)
			So(batch.Unscored, ShouldResemble, []string{"empty"})
			So(batch.Partial, ShouldBeTrue)
		})
	})

	Convey("Given a slow scorer and a short overall deadline", t, func() {
		slow := &stubScorer{name: "slow", hang: true}
		p, err := pipeline.New(newCache(cachestore.NewMemoryStore()), []scoring.Scorer{slow},
			pipeline.WithDeadline(30*time.Millisecond))
		So(err, ShouldBeNil)

		Convey("The batch returns partial when the deadline expires", func() {
			start := time.Now()
			batch := p.ScoreMany(context.Background(), []model.Subject{issue("a", "x"), issue("b", "y")}, "v1")
			So(time.Since(start), ShouldBeLessThan, 2*time.Second)
			So(batch.Partial, ShouldBeTrue)
			So(batch.Unscored, ShouldResemble, []string{"a", "b"})
			So(batch.Analyses, ShouldBeEmpty)
		})
	})
}
