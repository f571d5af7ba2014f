package ratelimit

import "context"

// Limits caps requests per sliding window. A zero field disables that window.
type Limits struct {
	PerMinute int
	PerHour   int
	PerDay    int
}

func (l Limits) Enabled() bool {
	return l.PerMinute > 0 || l.PerHour > 0 || l.PerDay > 0
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limits Limits) (bool, error)
}
