package storage

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter is a keyed windowed counter: INCR plus a TTL set on the
// first hit in the window. The increment is atomic, so concurrent requests
// against the same key never both see "allowed" past the limit.
type RedisRateLimiter struct {
	Client *redis.Client
}

func NewRedisRateLimiter(client *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{Client: client}
}

func (l *RedisRateLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) (bool, int, error) {
	count, err := l.Client.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, err
	}
	if count == 1 {
		if err := l.Client.Expire(ctx, key, window).Err(); err != nil {
			return false, 0, err
		}
	}
	if count > int64(limit) {
		return false, 0, nil
	}
	return true, limit - int(count), nil
}

func (l *RedisRateLimiter) Reset(ctx context.Context, key string) error {
	return l.Client.Del(ctx, key).Err()
}
