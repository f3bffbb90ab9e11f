package ratelimit

import (
	"time"

	"github.com/redis/go-redis/v9"
)

func newUnreachableClient() redis.UniversalClient {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}
