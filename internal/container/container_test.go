package container

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landing-v2/internal/config"
	"landing-v2/internal/ratelimit"
	"landing-v2/pkg/logger"
)

func baseConfig() *config.Config {
	return &config.Config{
		Environment:       "test",
		RateLimitRequests: 5,
		RateLimitWindow:   15 * time.Minute,
		CRMBaseURL:        "https://api.hubapi.com",
		CRMTimeout:        10 * time.Second,
	}
}

func TestNew_WithoutRedis(t *testing.T) {
	cfg := baseConfig()

	c, err := New(cfg, logger.NewNop())
	require.NoError(t, err)

	assert.False(t, c.HasRedis())
	assert.Nil(t, c.GetRedisClient())
	assert.IsType(t, &ratelimit.MemoryStore{}, c.GetRateLimiter())
	assert.NotNil(t, c.GetCRM())
	assert.Equal(t, cfg, c.GetConfig())
}

func TestNew_WithRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cfg := baseConfig()
	cfg.RedisURL = "redis://" + mr.Addr()

	c, err := New(cfg, logger.NewNop())
	require.NoError(t, err)
	defer func() { _ = c.GetRedisClient().Close() }()

	assert.True(t, c.HasRedis())
	assert.IsType(t, &ratelimit.RedisStore{}, c.GetRateLimiter())
}

func TestNew_UnreachableRedisFallsBackToMemory(t *testing.T) {
	cfg := baseConfig()
	cfg.RedisURL = "redis://127.0.0.1:1" // nothing listens here

	c, err := New(cfg, logger.NewNop())
	require.NoError(t, err)

	assert.False(t, c.HasRedis())
	assert.IsType(t, &ratelimit.MemoryStore{}, c.GetRateLimiter())
}
