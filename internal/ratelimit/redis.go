package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// checkScript implements the fixed window atomically on the Redis side so
// concurrent logins for the same key cannot under- or over-count attempts.
// It returns {allowed, remaining_seconds}.
var checkScript = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local max = tonumber(ARGV[2])
	local window = tonumber(ARGV[3])

	local state = redis.call('HMGET', key, 'attempts', 'window_start')
	local attempts = tonumber(state[1])
	local start = tonumber(state[2])

	if attempts == nil or start == nil or (now - start) > window then
		redis.call('HMSET', key, 'attempts', 1, 'window_start', now)
		redis.call('EXPIRE', key, window)
		return { 1, window }
	end

	local remaining = window - (now - start)
	if remaining < 0 then remaining = 0 end

	if attempts >= max then
		return { 0, remaining }
	end

	redis.call('HINCRBY', key, 'attempts', 1)
	return { 1, remaining }
`)

// RedisLimiter shares the fixed window across server instances. Keys are
// namespaced with a configurable prefix and expire with their window so
// stale entries clean themselves up.
type RedisLimiter struct {
	rdb         *redis.Client
	prefix      string
	maxAttempts int
	windowLen   time.Duration
}

func NewRedisLimiter(rdb *redis.Client, prefix string, maxAttempts int, windowLen time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, prefix: prefix, maxAttempts: maxAttempts, windowLen: windowLen}
}

func (l *RedisLimiter) key(k string) string { return l.prefix + ":" + k }

// Check implements Limiter.
func (l *RedisLimiter) Check(ctx context.Context, key string) (bool, error) {
	vals, err := checkScript.Run(ctx, l.rdb, []string{l.key(key)},
		time.Now().Unix(), l.maxAttempts, int64(l.windowLen/time.Second)).Int64Slice()
	if err != nil {
		return false, err
	}
	if len(vals) != 2 {
		return false, nil
	}
	return vals[0] == 1, nil
}

// Remaining implements Limiter.
func (l *RedisLimiter) Remaining(ctx context.Context, key string) (time.Duration, error) {
	start, err := l.rdb.HGet(ctx, l.key(key), "window_start").Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	rem := l.windowLen - time.Since(time.Unix(start, 0))
	if rem < 0 {
		rem = 0
	}
	return rem, nil
}
