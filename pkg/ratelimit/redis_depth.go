package ratelimit

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisDepthCounter backs queue_depth with a shared Redis counter so every
// replica of cmd/memoryd sees the same backpressure signal instead of one
// counter per process. Purely additive: the in-memory counter remains the
// default, this is an optional enrichment for multi-replica deployments.
type RedisDepthCounter struct {
	client *redis.Client
	key    string
}

// NewRedisDepthCounter builds a counter keyed under key on client.
func NewRedisDepthCounter(client *redis.Client, key string) *RedisDepthCounter {
	return &RedisDepthCounter{client: client, key: key}
}

// Incr atomically increments the shared counter.
func (c *RedisDepthCounter) Incr(ctx context.Context) (int64, error) {
	return c.client.Incr(ctx, c.key).Result()
}

// Decr atomically decrements the shared counter.
func (c *RedisDepthCounter) Decr(ctx context.Context) (int64, error) {
	return c.client.Decr(ctx, c.key).Result()
}
