package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrshiti/inplay-sub000/internal/domain/license"
	"github.com/hrshiti/inplay-sub000/internal/shared/logger"
)

func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisLicenseEventBus_PublishSubscribe(t *testing.T) {
	client := setupTestRedis(t)
	bus := NewRedisLicenseEventBus(client, logger.NewDiscard())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	received := make(chan LicenseEventMessage, 1)
	go func() {
		_ = bus.Subscribe(ctx, func(ctx context.Context, msg LicenseEventMessage) {
			received <- msg
		})
	}()
	// give the subscriber time to register before publishing
	time.Sleep(200 * time.Millisecond)

	event := license.Event{Type: license.EventRevoked, LicenseSID: "lic_a", Reason: license.ReasonUserRequested}
	require.NoError(t, bus.Publish(ctx, event))

	select {
	case msg := <-received:
		assert.Equal(t, license.EventRevoked, msg.Event.Type)
		assert.Equal(t, "lic_a", msg.Event.LicenseSID)
		assert.NotEmpty(t, msg.ID)
		assert.Equal(t, bus.instance, msg.Source)
	case <-ctx.Done():
		t.Fatal("event not received")
	}
}

func TestLogEventPublisher(t *testing.T) {
	p := NewLogEventPublisher(logger.NewDiscard())
	assert.NoError(t, p.Publish(context.Background(), license.Event{Type: license.EventIssued}))
}
