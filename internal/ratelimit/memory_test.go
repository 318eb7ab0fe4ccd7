package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a controllable time source for window tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryStore_Allow(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := NewMemoryStore(5, 15*time.Minute, WithClock(clock.Now))

	// First five requests inside the window pass.
	for i := 1; i <= 5; i++ {
		decision, err := store.Allow(ctx, "203.0.113.7")
		require.NoError(t, err)
		assert.True(t, decision.Allowed, "request %d should be allowed", i)
		assert.Equal(t, int64(i), decision.RequestCount)
		clock.Advance(time.Minute)
	}

	// The sixth within the window is rejected.
	decision, err := store.Allow(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, int64(6), decision.RequestCount)
	assert.Greater(t, decision.RetryAfter, time.Duration(0))
}

func TestMemoryStore_WindowSlides(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := NewMemoryStore(5, 15*time.Minute, WithClock(clock.Now))

	for i := 0; i < 5; i++ {
		decision, err := store.Allow(ctx, "198.51.100.1")
		require.NoError(t, err)
		require.True(t, decision.Allowed)
	}

	// Just past the window the oldest entries fall out and the request
	// passes again, shifting the window forward.
	clock.Advance(15*time.Minute + time.Second)

	decision, err := store.Allow(ctx, "198.51.100.1")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, int64(1), decision.RequestCount)
	assert.Zero(t, decision.RetryAfter)
}

func TestMemoryStore_DeniedRequestsStillCount(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := NewMemoryStore(2, time.Minute, WithClock(clock.Now))

	for i := 0; i < 2; i++ {
		decision, err := store.Allow(ctx, "192.0.2.9")
		require.NoError(t, err)
		require.True(t, decision.Allowed)
	}

	// Repeated denied attempts keep extending the recorded sequence.
	for i := 0; i < 3; i++ {
		decision, err := store.Allow(ctx, "192.0.2.9")
		require.NoError(t, err)
		assert.False(t, decision.Allowed)
	}

	decision, err := store.Allow(ctx, "192.0.2.9")
	require.NoError(t, err)
	assert.Equal(t, int64(6), decision.RequestCount)
}

func TestMemoryStore_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(1, time.Minute)

	first, err := store.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, first.Allowed)

	blocked, err := store.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, blocked.Allowed)

	// An unknown client starts with an empty sequence.
	other, err := store.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, other.Allowed)
	assert.Equal(t, int64(1), other.RequestCount)
}

func TestMemoryStore_ConcurrentChecksDoNotUndercount(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(1000, time.Minute)

	const goroutines = 50
	const perGoroutine = 10

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				_, err := store.Allow(ctx, "shared")
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	decision, err := store.Allow(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, int64(goroutines*perGoroutine+1), decision.RequestCount)
}
