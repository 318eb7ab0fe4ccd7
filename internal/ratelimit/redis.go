package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"landing-v2/pkg/redis"
)

// RedisStore keeps the sliding window in a sorted set per client, scored by
// request timestamp. It exists as a deployment seam for running more than
// one replica; the default store stays in memory.
type RedisStore struct {
	client *redis.Client
	limit  int64
	window time.Duration
	seq    atomic.Int64
}

// NewRedisStore creates a Redis-backed sliding-window store.
func NewRedisStore(client *redis.Client, limit int64, window time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		limit:  limit,
		window: window,
	}
}

var _ Store = (*RedisStore)(nil)

// Allow records the request in the client's sorted set and reports whether
// it is within the limit. The prune, add and count run in a transactional
// pipeline so concurrent checks for the same client cannot under-count.
func (s *RedisStore) Allow(ctx context.Context, clientID string) (*Decision, error) {
	now := time.Now()
	cutoff := now.Add(-s.window)
	key := s.client.KeyBuilder.KeyPromoRateLimit(clientID)

	// Members must be unique even when two requests share a timestamp.
	member := fmt.Sprintf("%d-%d", now.UnixNano(), s.seq.Add(1))

	pipe := s.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(cutoff.UnixNano(), 10))
	pipe.ZAdd(ctx, key, goredis.Z{Score: float64(now.UnixNano()), Member: member})
	card := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, s.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("rate limit pipeline failed: %w", err)
	}

	count := card.Val()
	decision := &Decision{
		Allowed:      count <= s.limit,
		RequestCount: count,
		Limit:        s.limit,
		WindowStart:  cutoff,
	}
	if !decision.Allowed {
		decision.RetryAfter = s.retryAfter(ctx, key, now)
	}
	return decision, nil
}

// retryAfter derives the wait from the oldest entry still inside the window.
func (s *RedisStore) retryAfter(ctx context.Context, key string, now time.Time) time.Duration {
	oldest, err := s.client.ZRangeWithScores(ctx, key, 0, 0)
	if err != nil || len(oldest) == 0 {
		return s.window
	}
	expiresAt := time.Unix(0, int64(oldest[0].Score)).Add(s.window)
	if wait := expiresAt.Sub(now); wait > 0 {
		return wait
	}
	return 0
}
