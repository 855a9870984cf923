package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisFixedWindow enforces the same fixed-window policy as FixedWindow but
// keeps the counters in Redis, so concurrent service instances share one
// budget per key.
type RedisFixedWindow struct {
	redis  *redis.Client
	name   string
	limit  int
	window time.Duration
}

func NewRedisFixedWindow(redisClient *redis.Client, name string, limit int, window time.Duration) *RedisFixedWindow {
	return &RedisFixedWindow{
		redis:  redisClient,
		name:   name,
		limit:  limit,
		window: window,
	}
}

// Lua script for an atomic increment-and-check. The key expires with the
// window, so there is nothing to sweep.
const fixedWindowScript = `
	local key = KEYS[1]
	local limit = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])

	local count = redis.call('INCR', key)
	if count == 1 then
		redis.call('EXPIRE', key, window)
	end

	if count <= limit then
		return 1
	end
	return 0
`

func (r *RedisFixedWindow) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := fmt.Sprintf("rate_limit:%s:%s", r.name, key)

	result, err := r.redis.Eval(ctx, fixedWindowScript, []string{redisKey},
		r.limit, int64(r.window.Seconds())).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}

	allowed, ok := result.(int64)
	if !ok {
		return false, fmt.Errorf("unexpected result type from rate limit script")
	}

	return allowed == 1, nil
}
