package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func newTestLimiter(t *testing.T) (*RedisRateLimiter, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisRateLimiter(client), mr
}

func TestRateLimiter_CountsDownToDenial(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, remaining, err := limiter.Check(ctx, "dispatch:owner:1", 3, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed, "request %d should pass", i+1)
		assert.Equal(t, 3-(i+1), remaining)
	}

	allowed, remaining, err := limiter.Check(ctx, "dispatch:owner:1", 3, time.Minute)
	assert.NoError(t, err)
	assert.False(t, allowed)
	assert.Zero(t, remaining)
}

func TestRateLimiter_TTLSetOnFirstHitOnly(t *testing.T) {
	limiter, mr := newTestLimiter(t)
	ctx := context.Background()

	_, _, err := limiter.Check(ctx, "fee:203.0.113.9:10", 60, time.Minute)
	assert.NoError(t, err)
	assert.Equal(t, time.Minute, mr.TTL("fee:203.0.113.9:10"))

	// Later hits must not push the expiry out.
	mr.FastForward(40 * time.Second)
	_, _, err = limiter.Check(ctx, "fee:203.0.113.9:10", 60, time.Minute)
	assert.NoError(t, err)
	assert.Equal(t, 20*time.Second, mr.TTL("fee:203.0.113.9:10"))
}

func TestRateLimiter_WindowExpiryResets(t *testing.T) {
	limiter, mr := newTestLimiter(t)
	ctx := context.Background()

	allowed, _, err := limiter.Check(ctx, "dispatch:owner:1", 1, time.Minute)
	assert.NoError(t, err)
	assert.True(t, allowed)

	allowed, _, err = limiter.Check(ctx, "dispatch:owner:1", 1, time.Minute)
	assert.NoError(t, err)
	assert.False(t, allowed)

	mr.FastForward(time.Minute + time.Second)

	allowed, _, err = limiter.Check(ctx, "dispatch:owner:1", 1, time.Minute)
	assert.NoError(t, err)
	assert.True(t, allowed, "a fresh window should admit again")
}

func TestRateLimiter_OneShotLock(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	allowed, _, err := limiter.Check(ctx, "rating:delivery:100", 1, 24*time.Hour)
	assert.NoError(t, err)
	assert.True(t, allowed)

	for i := 0; i < 5; i++ {
		allowed, _, err = limiter.Check(ctx, "rating:delivery:100", 1, 24*time.Hour)
		assert.NoError(t, err)
		assert.False(t, allowed)
	}
}

func TestRateLimiter_ResetReleasesConsumedSlot(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	allowed, _, err := limiter.Check(ctx, "rating:delivery:100", 1, 24*time.Hour)
	assert.NoError(t, err)
	assert.True(t, allowed)

	allowed, _, err = limiter.Check(ctx, "rating:delivery:100", 1, 24*time.Hour)
	assert.NoError(t, err)
	assert.False(t, allowed)

	assert.NoError(t, limiter.Reset(ctx, "rating:delivery:100"))

	allowed, _, err = limiter.Check(ctx, "rating:delivery:100", 1, 24*time.Hour)
	assert.NoError(t, err)
	assert.True(t, allowed, "reset must reopen the slot")
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	allowed, _, err := limiter.Check(ctx, "rating:delivery:100", 1, 24*time.Hour)
	assert.NoError(t, err)
	assert.True(t, allowed)

	for id := 101; id <= 105; id++ {
		allowed, _, err = limiter.Check(ctx, fmt.Sprintf("rating:delivery:%d", id), 1, 24*time.Hour)
		assert.NoError(t, err)
		assert.True(t, allowed, "delivery %d has its own lock", id)
	}
}

func TestRateLimiter_ClosedConnection(t *testing.T) {
	limiter, mr := newTestLimiter(t)
	mr.Close()

	_, _, err := limiter.Check(context.Background(), "dispatch:owner:1", 30, time.Minute)
	assert.Error(t, err)
}
