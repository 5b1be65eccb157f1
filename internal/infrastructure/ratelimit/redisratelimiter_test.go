package ratelimit

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	client.FlushDB(ctx)
	t.Cleanup(func() {
		client.FlushDB(ctx)
		client.Close()
	})
	return client
}

func TestConfig_Enabled(t *testing.T) {
	assert.False(t, Config{}.Enabled())
	assert.True(t, Config{PerHour: 1}.Enabled())
}

func TestRedisRateLimiter_Allow_PerMinute(t *testing.T) {
	limiter := NewRedisRateLimiter(setupTestRedis(t))
	ctx := context.Background()
	cfg := Config{PerMinute: 5}

	for i := 0; i < 5; i++ {
		allowed, err := limiter.Allow(ctx, "owner-1", cfg)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be allowed", i+1)
	}

	allowed, err := limiter.Allow(ctx, "owner-1", cfg)
	require.NoError(t, err)
	assert.False(t, allowed, "6th request should be denied")

	allowed, err = limiter.Allow(ctx, "owner-2", cfg)
	require.NoError(t, err)
	assert.True(t, allowed, "other owners have their own window")
}

func TestRedisRateLimiter_Allow_PerHour(t *testing.T) {
	limiter := NewRedisRateLimiter(setupTestRedis(t))
	ctx := context.Background()
	cfg := Config{PerMinute: 100, PerHour: 3}

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "owner-1", cfg)
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := limiter.Allow(ctx, "owner-1", cfg)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestRedisRateLimiter_Reset(t *testing.T) {
	limiter := NewRedisRateLimiter(setupTestRedis(t))
	ctx := context.Background()
	cfg := Config{PerMinute: 1}

	allowed, err := limiter.Allow(ctx, "owner-1", cfg)
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "owner-1", cfg)
	require.NoError(t, err)
	require.False(t, allowed)

	require.NoError(t, limiter.Reset(ctx, "owner-1"))

	allowed, err = limiter.Allow(ctx, "owner-1", cfg)
	require.NoError(t, err)
	assert.True(t, allowed)
}
