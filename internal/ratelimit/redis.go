package ratelimit

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// The window TTL is set only when the key is created, so the window is fixed
// from the first attempt rather than sliding on every call.
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`)

// RedisLimiter is a Limiter backed by shared Redis counters. When Redis is
// unreachable it falls back to per-process counting rather than failing the
// request.
type RedisLimiter struct {
	client   *redis.Client
	window   time.Duration
	prefix   string
	fallback *InMemoryLimiter
}

// NewRedis creates a Redis-backed fixed-window limiter
func NewRedis(client *redis.Client, window time.Duration) *RedisLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &RedisLimiter{
		client:   client,
		window:   window,
		prefix:   "ratelimit:",
		fallback: NewInMemory(window),
	}
}

// Allow counts one attempt for key and reports whether it is admitted
func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int) (Decision, error) {
	if limit <= 0 {
		limit = 1
	}
	if l.client == nil {
		return l.fallback.Allow(ctx, key, limit)
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	res, err := fixedWindowScript.Run(ctx, l.client, []string{l.prefix + key}, l.window.Milliseconds()).Result()
	if err != nil {
		return l.fallback.Allow(ctx, key, limit)
	}

	vals, ok := res.([]interface{})
	if !ok || len(vals) < 2 {
		return l.fallback.Allow(ctx, key, limit)
	}

	count, _ := vals[0].(int64)
	ttlMs, _ := vals[1].(int64)
	if ttlMs < 0 {
		ttlMs = l.window.Milliseconds()
	}

	return decision(int(count), limit, time.Duration(ttlMs)*time.Millisecond), nil
}
