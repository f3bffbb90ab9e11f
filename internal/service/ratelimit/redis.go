package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window counter shared by every instance behind the same Redis.
type RedisLimiter struct {
	client   redis.UniversalClient
	prefix   string
	requests int64
	window   time.Duration
	now      func() time.Time
}

// NewRedis allows `requests` per `window` per key.
func NewRedis(client redis.UniversalClient, prefix string, requests int, window time.Duration) *RedisLimiter {
	if prefix == "" {
		prefix = "pippydesk:rl"
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RedisLimiter{client: client, prefix: prefix, requests: int64(requests), window: window, now: time.Now}
}

// Allow increments the current window counter for key.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	slot := l.now().UnixNano() / int64(l.window)
	k := fmt.Sprintf("%s:%s:%d", l.prefix, key, slot)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit %s: %w", key, err)
	}
	return incr.Val() <= l.requests, nil
}
