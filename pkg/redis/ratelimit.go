package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RateLimitResult contains the result of a rate limit check
type RateLimitResult struct {
	Allowed   bool
	Remaining int64
	ResetAt   time.Time
	RetryIn   time.Duration
}

// RateLimiter provides sliding-window rate limiting using Redis
type RateLimiter struct {
	client    *Client
	keyPrefix string
}

// NewRateLimiter creates a new RateLimiter
func NewRateLimiter(client *Client, keyPrefix string) *RateLimiter {
	if keyPrefix == "" {
		keyPrefix = "ratelimit:"
	}
	return &RateLimiter{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case string:
		// Redis Lua returns numbers as strings sometimes (e.g., zrange WITHSCORES)
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(n, 64)
			if ferr != nil {
				return 0, err
			}
			return int64(f), nil
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("unexpected numeric type %T", v)
	}
}

// Allow checks if a request is allowed under the rate limit
// Uses sliding window algorithm
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int64, window time.Duration) (*RateLimitResult, error) {
	now := time.Now()
	windowStart := now.Add(-window)
	rateKey := r.keyPrefix + key

	// Use Lua script for atomic operation
	script := goredis.NewScript(`
		local key = KEYS[1]
		local now = tonumber(ARGV[1])
		local window_start = tonumber(ARGV[2])
		local limit = tonumber(ARGV[3])
		local window_ms = tonumber(ARGV[4])

		-- Remove old entries
		redis.call("zremrangebyscore", key, "-inf", window_start)

		-- Count current entries
		local current = redis.call("zcard", key)

		if current < limit then
			-- Add new entry
			redis.call("zadd", key, now, now .. "-" .. math.random())
			redis.call("pexpire", key, window_ms)
			return {1, limit - current - 1}
		else
			-- Get oldest entry to calculate retry time
			local oldest = redis.call("zrange", key, 0, 0, "WITHSCORES")
			if #oldest > 0 then
				return {0, 0, oldest[2]}
			end
			return {0, 0, 0}
		end
	`)

	result, err := script.Run(ctx, r.client.rdb, []string{rateKey},
		now.UnixMilli(),
		windowStart.UnixMilli(),
		limit,
		window.Milliseconds(),
	).Slice()

	if err != nil {
		return nil, err
	}

	allowedFlag, err := toInt64(result[0])
	if err != nil {
		return nil, err
	}
	remaining, err := toInt64(result[1])
	if err != nil {
		return nil, err
	}
	allowed := allowedFlag == 1

	res := &RateLimitResult{
		Allowed:   allowed,
		Remaining: remaining,
		ResetAt:   now.Add(window),
	}

	if !allowed && len(result) > 2 {
		oldestMs, err := toInt64(result[2])
		if err != nil {
			return nil, err
		}
		if oldestMs > 0 {
			oldestTime := time.UnixMilli(oldestMs)
			res.RetryIn = oldestTime.Add(window).Sub(now)
		}
	}

	return res, nil
}
