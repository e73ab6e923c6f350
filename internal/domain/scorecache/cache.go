// Package scorecache maps fingerprints to scorer results and guarantees at
// most one computation in flight per fingerprint.
package scorecache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/gitstart/internal/domain/model"
	"github.com/okian/gitstart/pkg/logger"
	"github.com/okian/gitstart/pkg/metrics"
)

// Default cache configuration constants.
const (
	DefaultTTL        = time.Hour
	DefaultPartialTTL = 10 * time.Minute
)

// Store persists cache entries. Implementations must round-trip entries
// exactly and never expose a partially written entry.
type Store interface {
	Load(ctx context.Context, fp model.Fingerprint) (model.CacheEntry, bool, error)
	Save(ctx context.Context, entry model.CacheEntry) error
	Delete(ctx context.Context, fp model.Fingerprint) error
}

// ComputeFunc produces the scorer results for one fingerprint. Failed lists
// the scorers that did not produce a result. Returning no results is a
// total failure.
type ComputeFunc func(ctx context.Context) (results []model.ScoreResult, failed []string, err error)

// Stats is a point-in-time view of cache activity.
type Stats struct {
	Hits     int64 `json:"hits"`
	Misses   int64 `json:"misses"`
	Joins    int64 `json:"joins"`
	InFlight int   `json:"in_flight"`
}

// flight is the shared handle every caller for one fingerprint waits on.
type flight struct {
	done    chan struct{}
	entry   model.CacheEntry
	stored  bool
	err     error
	waiters int
	cancel  context.CancelFunc
}

// Cache is the score cache. The zero value is not usable; use New.
type Cache struct {
	store      Store
	ttl        time.Duration
	partialTTL time.Duration
	now        func() time.Time
	log        logger.Logger

	mu      sync.Mutex
	flights map[model.Fingerprint]*flight

	hits   atomic.Int64
	misses atomic.Int64
	joins  atomic.Int64
}

// New creates a cache over store.
func New(store Store, opts ...Option) (*Cache, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	c := &Cache{
		store:      store,
		ttl:        DefaultTTL,
		partialTTL: DefaultPartialTTL,
		now:        time.Now,
		flights:    make(map[model.Fingerprint]*flight),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.ttl <= 0 || c.partialTTL <= 0 {
		return nil, fmt.Errorf("%w: ttl %s, partial ttl %s", ErrInvalidTTL, c.ttl, c.partialTTL)
	}
	if c.partialTTL > c.ttl {
		return nil, fmt.Errorf("%w: partial ttl %s exceeds ttl %s", ErrInvalidTTL, c.partialTTL, c.ttl)
	}
	if c.log == nil {
		c.log = logger.Get().Named("scorecache")
	}
	return c, nil
}

// Get returns the live entry for fp. An expired entry is a miss.
func (c *Cache) Get(ctx context.Context, fp model.Fingerprint) (model.CacheEntry, bool, error) {
	entry, ok, err := c.store.Load(ctx, fp)
	if err != nil {
		return model.CacheEntry{}, false, model.Wrap("scorecache.get", err)
	}
	if !ok || entry.Expired(c.now()) {
		c.misses.Add(1)
		metrics.RecordCacheMiss()
		return model.CacheEntry{}, false, nil
	}
	c.hits.Add(1)
	metrics.RecordCacheHit()
	return entry, true, nil
}

// ComputeOrJoin runs fn for fp unless a computation for fp is already in
// flight, in which case it waits for that one. Every caller sees the same
// entry or the same error. A caller whose ctx ends stops waiting; the
// computation is cancelled only when no caller is left.
//
// A new flight checks the store before calling fn, so a flight that finished
// between a caller's Get and this call is not repeated. The returned bool
// reports that the entry came from the store rather than from fn.
func (c *Cache) ComputeOrJoin(ctx context.Context, fp model.Fingerprint, fn ComputeFunc) (model.CacheEntry, bool, error) {
	c.mu.Lock()
	f, ok := c.flights[fp]
	if ok {
		f.waiters++
		c.joins.Add(1)
		metrics.RecordCacheJoin()
	} else {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{done: make(chan struct{}), waiters: 1, cancel: cancel}
		c.flights[fp] = f
		metrics.UpdateCacheInflight(len(c.flights))
		go c.run(fctx, fp, f, fn)
	}
	c.mu.Unlock()

	return c.await(ctx, fp, f)
}

// await waits for f or for ctx. A flight that is already done wins over a
// ctx that ended at the same moment.
func (c *Cache) await(ctx context.Context, fp model.Fingerprint, f *flight) (model.CacheEntry, bool, error) {
	select {
	case <-f.done:
		return f.entry, f.stored, f.err
	case <-ctx.Done():
		select {
		case <-f.done:
			return f.entry, f.stored, f.err
		default:
		}
		c.leave(fp, f)
		return model.CacheEntry{}, false, ctx.Err()
	}
}

// leave detaches one waiter and abandons the flight when it was the last.
func (c *Cache) leave(fp model.Fingerprint, f *flight) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f.waiters--
	if f.waiters > 0 {
		return
	}
	select {
	case <-f.done:
		return
	default:
	}
	// New callers must not join a flight that is being torn down.
	if c.flights[fp] == f {
		delete(c.flights, fp)
		metrics.UpdateCacheInflight(len(c.flights))
	}
	f.cancel()
}

func (c *Cache) run(ctx context.Context, fp model.Fingerprint, f *flight, fn ComputeFunc) {
	defer f.cancel()

	if entry, ok := c.recheck(ctx, fp); ok {
		f.entry, f.stored = entry, true
		c.finish(fp, f)
		return
	}

	results, failed, err := c.call(ctx, fn)
	if err == nil && len(results) == 0 {
		err = model.NewKind("scorecache.compute", model.ErrAllScorersFailed)
	}

	if err == nil {
		now := c.now()
		entry := model.CacheEntry{
			Fingerprint: fp,
			Results:     results,
			Failed:      failed,
			InsertedAt:  now,
			ExpiresAt:   now.Add(c.ttl),
		}
		if len(failed) > 0 {
			entry.ExpiresAt = now.Add(c.partialTTL)
		}
		f.entry = entry

		// An abandoned flight is not cached: its failures are our own cancellation.
		if ctx.Err() == nil {
			if serr := c.store.Save(ctx, entry); serr != nil {
				c.log.Warn(ctx, "cache save failed", logger.String("fingerprint", fp.Short()), logger.Error(serr))
				metrics.RecordErrorByComponent("scorecache", "save")
			} else {
				metrics.RecordCacheWrite(len(failed) > 0)
			}
		}
	} else {
		c.log.Debug(ctx, "computation failed", logger.String("fingerprint", fp.Short()), logger.Error(err))
	}
	f.err = err
	c.finish(fp, f)
}

// recheck loads a live entry that another flight saved after the caller's
// own lookup missed. Store errors fall through to computing.
func (c *Cache) recheck(ctx context.Context, fp model.Fingerprint) (model.CacheEntry, bool) {
	entry, ok, err := c.store.Load(ctx, fp)
	if err != nil {
		c.log.Debug(ctx, "flight recheck failed", logger.String("fingerprint", fp.Short()), logger.Error(err))
		return model.CacheEntry{}, false
	}
	if !ok || entry.Expired(c.now()) {
		return model.CacheEntry{}, false
	}
	return entry, true
}

// finish unregisters the flight and releases its waiters.
func (c *Cache) finish(fp model.Fingerprint, f *flight) {
	c.mu.Lock()
	if c.flights[fp] == f {
		delete(c.flights, fp)
		metrics.UpdateCacheInflight(len(c.flights))
	}
	c.mu.Unlock()
	close(f.done)
}

func (c *Cache) call(ctx context.Context, fn ComputeFunc) (results []model.ScoreResult, failed []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrComputeFn, r)
		}
	}()
	return fn(ctx)
}

// Invalidate removes the entry for fp. A computation already in flight still
// completes and is cached.
func (c *Cache) Invalidate(ctx context.Context, fp model.Fingerprint) error {
	if err := c.store.Delete(ctx, fp); err != nil {
		return model.Wrap("scorecache.invalidate", err)
	}
	metrics.RecordCacheInvalidation()
	return nil
}

// Stats returns current counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	inflight := len(c.flights)
	c.mu.Unlock()
	return Stats{
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Joins:    c.joins.Load(),
		InFlight: inflight,
	}
}
