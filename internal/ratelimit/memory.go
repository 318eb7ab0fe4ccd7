package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the default single-process Store: a map from client ID to
// the timestamps of its requests inside the trailing window. State is lost
// on restart, which is acceptable for this service. Idle keys are never
// evicted, only filtered at check time.
type MemoryStore struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	limit  int64
	window time.Duration
	now    func() time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

// NewMemoryStore creates an in-memory sliding-window store allowing limit
// requests per client per window.
func NewMemoryStore(limit int64, window time.Duration, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		hits:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ Store = (*MemoryStore)(nil)

// Allow records the current request and reports whether it is within the
// limit. Denied requests are recorded too; hammering a limited client does
// not shrink its wait.
func (s *MemoryStore) Allow(_ context.Context, clientID string) (*Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cutoff := now.Add(-s.window)

	// Prune expired entries in place.
	recent := s.hits[clientID]
	valid := 0
	for _, t := range recent {
		if t.After(cutoff) {
			recent[valid] = t
			valid++
		}
	}
	recent = append(recent[:valid], now)
	s.hits[clientID] = recent

	count := int64(len(recent))
	decision := &Decision{
		Allowed:      count <= s.limit,
		RequestCount: count,
		Limit:        s.limit,
		WindowStart:  cutoff,
	}
	if !decision.Allowed {
		decision.RetryAfter = recent[0].Add(s.window).Sub(now)
	}
	return decision, nil
}
