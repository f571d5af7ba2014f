package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisRateLimiter struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisRateLimiter stores one sorted set per key and window under prefix.
func NewRedisRateLimiter(client *redis.Client, prefix string) *RedisRateLimiter {
	return &RedisRateLimiter{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}
}

func (l *RedisRateLimiter) Allow(ctx context.Context, key string, limits Limits) (bool, error) {
	now := l.now()

	windows := []struct {
		duration time.Duration
		limit    int
	}{
		{time.Minute, limits.PerMinute},
		{time.Hour, limits.PerHour},
		{24 * time.Hour, limits.PerDay},
	}

	for _, window := range windows {
		if window.limit <= 0 {
			continue
		}

		allowed, err := l.checkWindow(ctx, key, window.duration, window.limit, now)
		if err != nil {
			return false, err
		}
		if !allowed {
			return false, nil
		}
	}

	return true, nil
}

func (l *RedisRateLimiter) checkWindow(ctx context.Context, key string, window time.Duration, limit int, now time.Time) (bool, error) {
	redisKey := l.windowKey(key, window)
	windowStart := now.Add(-window).UnixNano()
	nowNano := now.UnixNano()

	pipe := l.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", fmt.Sprintf("%d", windowStart))
	zcard := pipe.ZCard(ctx, redisKey)
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(nowNano), Member: nowNano})
	pipe.Expire(ctx, redisKey, window+time.Minute)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to execute rate limit pipeline: %w", err)
	}

	return zcard.Val() < int64(limit), nil
}

func (l *RedisRateLimiter) windowKey(key string, window time.Duration) string {
	return fmt.Sprintf("%s%s:%s", l.prefix, key, window.String())
}
