package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	client.FlushDB(ctx)
	t.Cleanup(func() {
		client.FlushDB(ctx)
		client.Close()
	})

	return client
}

func TestRedisJobLock_Exclusive(t *testing.T) {
	client := setupTestRedis(t)
	lock := NewRedisJobLock(client, "inplay:test:lock:", time.Minute)
	ctx := context.Background()

	release, err := lock.Acquire(ctx, "license-sweep")
	require.NoError(t, err)

	_, err = lock.Acquire(ctx, "license-sweep")
	assert.ErrorIs(t, err, ErrLockHeld)

	require.NoError(t, release(ctx))

	again, err := lock.Acquire(ctx, "license-sweep")
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}

func TestRedisJobLock_ReleaseKeepsForeignLock(t *testing.T) {
	client := setupTestRedis(t)
	lock := NewRedisJobLock(client, "inplay:test:lock:", time.Minute)
	ctx := context.Background()

	release, err := lock.Acquire(ctx, "job")
	require.NoError(t, err)

	// simulate expiry followed by another holder
	require.NoError(t, client.Set(ctx, "inplay:test:lock:job", "other-holder", time.Minute).Err())
	require.NoError(t, release(ctx))

	val, err := client.Get(ctx, "inplay:test:lock:job").Result()
	require.NoError(t, err)
	assert.Equal(t, "other-holder", val)
}
