package services

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/you/authsvc/domain"
)

// RedisRateLimiter implements domain.RateLimiter with a fixed window
// per key backed by a shared Redis counter. The window is fixed rather
// than a sliding log to keep O(1) state per key; the counter resets to
// 1 on rollover, which permits small bursts across the boundary.
type RedisRateLimiter struct {
	client *redis.Client
	prefix string
	max    int
	window time.Duration
}

// RateLimitConfig holds the fixed-window settings
type RateLimitConfig struct {
	MaxRequests int
	Window      time.Duration
}

// NewRedisRateLimiter creates a new Redis-backed rate limiter
func NewRedisRateLimiter(client *redis.Client, config RateLimitConfig) domain.RateLimiter {
	return &RedisRateLimiter{
		client: client,
		prefix: "ratelimit:",
		max:    config.MaxRequests,
		window: config.Window,
	}
}

// Check increments the counter for the key and decides whether the
// request is allowed. Redis INCR is atomic, so concurrent requests
// cannot exceed the limit by more than in-flight expiry races. Callers
// must treat a returned error as fail-open: a broken counter store is
// never allowed to turn into a denial of service.
func (l *RedisRateLimiter) Check(ctx context.Context, key string) (*domain.RateDecision, error) {
	counterKey := l.prefix + key

	count, err := l.client.Incr(ctx, counterKey).Result()
	if err != nil {
		return &domain.RateDecision{Allowed: true}, err
	}

	// First hit in the window starts it; the TTL is the window edge.
	if count == 1 {
		if err := l.client.Expire(ctx, counterKey, l.window).Err(); err != nil {
			return &domain.RateDecision{Allowed: true}, err
		}
	}

	if count <= int64(l.max) {
		return &domain.RateDecision{Allowed: true}, nil
	}

	ttl, err := l.client.TTL(ctx, counterKey).Result()
	if err != nil {
		return &domain.RateDecision{Allowed: true}, err
	}

	// A counter with no expiry means the EXPIRE after the first INCR was
	// lost; left alone the window would never reset and the key would be
	// denied forever. Re-arm the expiry and let the request through.
	if ttl < 0 {
		if err := l.client.Expire(ctx, counterKey, l.window).Err(); err != nil {
			return &domain.RateDecision{Allowed: true}, err
		}
		return &domain.RateDecision{Allowed: true}, nil
	}

	retryAfter := ttl
	if retryAfter < time.Second {
		retryAfter = time.Second
	}
	return &domain.RateDecision{Allowed: false, RetryAfter: retryAfter}, nil
}
