package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter counts events per key in fixed windows stored in Redis, so
// every replica shares the same budget.
type RedisLimiter struct {
	client   redis.Cmdable
	requests int64
	window   time.Duration
	prefix   string
}

func NewRedisLimiter(client redis.Cmdable, requests int, window time.Duration, prefix string) *RedisLimiter {
	return &RedisLimiter{
		client:   client,
		requests: int64(requests),
		window:   window,
		prefix:   prefix,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	const op = "ratelimit.RedisLimiter.Allow"

	k := l.prefix + ":" + key

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, l.window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("%s: failed to count request: %w", op, err)
	}

	return incr.Val() <= l.requests, nil
}
