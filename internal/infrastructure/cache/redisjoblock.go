package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld is returned when another holder owns the lock.
var ErrLockHeld = errors.New("lock held by another instance")

// releaseScript deletes the key only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisJobLock is a best-effort mutual exclusion for periodic jobs that run
// on several instances. The TTL bounds how long a crashed holder blocks others.
type RedisJobLock struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisJobLock(client *redis.Client, prefix string, ttl time.Duration) *RedisJobLock {
	return &RedisJobLock{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Acquire takes the named lock and returns a release function. It returns
// ErrLockHeld when the lock is taken.
func (l *RedisJobLock) Acquire(ctx context.Context, name string) (func(context.Context) error, error) {
	key := l.prefix + name
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", name, err)
	}
	if !ok {
		return nil, ErrLockHeld
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("failed to release lock %s: %w", name, err)
		}
		return nil
	}
	return release, nil
}
