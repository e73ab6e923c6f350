package cachestore

import (
	"context"
	"sync"
	"time"

	"github.com/okian/gitstart/internal/domain/model"
)

const defaultMaxEntries = 10000

// MemoryOption applies a configuration option to the MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMaxEntries bounds the store. Zero or negative means unbounded.
func WithMaxEntries(n int) MemoryOption {
	return func(s *MemoryStore) {
		s.maxEntries = n
	}
}

// WithMemoryClock replaces time.Now for eviction decisions.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// MemoryStore keeps entries in process memory.
type MemoryStore struct {
	mu         sync.RWMutex
	entries    map[model.Fingerprint]model.CacheEntry
	maxEntries int
	now        func() time.Time
}

// NewMemoryStore creates an in-process store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries:    make(map[model.Fingerprint]model.CacheEntry),
		maxEntries: defaultMaxEntries,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns a copy of the stored entry.
func (s *MemoryStore) Load(_ context.Context, fp model.Fingerprint) (model.CacheEntry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[fp]
	if !ok {
		return model.CacheEntry{}, false, nil
	}
	return clone(e), true, nil
}

// Save stores a copy of the entry, evicting when the store is full.
func (s *MemoryStore) Save(_ context.Context, e model.CacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[e.Fingerprint]; !exists && s.maxEntries > 0 && len(s.entries) >= s.maxEntries {
		s.evict()
	}
	s.entries[e.Fingerprint] = clone(e)
	return nil
}

// Delete removes the entry if present.
func (s *MemoryStore) Delete(_ context.Context, fp model.Fingerprint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, fp)
	return nil
}

// Len returns the number of stored entries, live or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// evict drops every expired entry, or the soonest-expiring one when none
// has expired. Must be called with s.mu held.
func (s *MemoryStore) evict() {
	now := s.now()
	var (
		victim   model.Fingerprint
		earliest time.Time
		dropped  bool
	)
	for fp, e := range s.entries {
		if e.Expired(now) {
			delete(s.entries, fp)
			dropped = true
			continue
		}
		if earliest.IsZero() || e.ExpiresAt.Before(earliest) || (e.ExpiresAt.Equal(earliest) && fp < victim) {
			victim, earliest = fp, e.ExpiresAt
		}
	}
	if !dropped && victim != "" {
		delete(s.entries, victim)
	}
}

func clone(e model.CacheEntry) model.CacheEntry {
	out := e
	out.Results = append([]model.ScoreResult(nil), e.Results...)
	if e.Failed != nil {
		out.Failed = append([]string(nil), e.Failed...)
	}
	return out
}
