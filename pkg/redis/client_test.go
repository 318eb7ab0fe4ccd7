package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := NewClient("redis://"+mr.Addr(), "test", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		expectError bool
	}{
		{
			name:        "Invalid URL",
			url:         "invalid://url",
			expectError: true,
		},
		{
			name:        "Empty URL",
			url:         "",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.url, "test", zap.NewNop())

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, client)
			}
		})
	}
}

func TestNewClient_Connects(t *testing.T) {
	_, client := setupTestRedis(t)

	assert.NotNil(t, client.KeyBuilder)
	assert.Equal(t, "staging", client.KeyBuilder.GetPrefix())
	assert.NoError(t, client.Health(context.Background()))
}

func TestClient_Pipeline(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	pipe := client.TxPipeline()
	pipe.ZAdd(ctx, "test:zset", goredis.Z{Score: 1, Member: "a"})
	pipe.ZAdd(ctx, "test:zset", goredis.Z{Score: 2, Member: "b"})
	card := pipe.ZCard(ctx, "test:zset")
	_, err := pipe.Exec(ctx)

	require.NoError(t, err)
	assert.Equal(t, int64(2), card.Val())
}

func TestClient_Expire(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("test:key", "value"))
	require.NoError(t, client.Expire(ctx, "test:key", time.Minute))

	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists("test:key"))
}

func TestClient_ZRangeWithScores(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	pipe := client.Pipeline()
	pipe.ZAdd(ctx, "test:window", goredis.Z{Score: 100, Member: "old"})
	pipe.ZAdd(ctx, "test:window", goredis.Z{Score: 200, Member: "new"})
	_, err := pipe.Exec(ctx)
	require.NoError(t, err)

	vals, err := client.ZRangeWithScores(ctx, "test:window", 0, 0)
	require.NoError(t, err)
	require.Len(t, vals, 1)
	assert.Equal(t, "old", vals[0].Member)
	assert.Equal(t, float64(100), vals[0].Score)
}
