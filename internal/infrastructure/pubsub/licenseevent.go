package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/hrshiti/inplay-sub000/internal/domain/license"
	"github.com/hrshiti/inplay-sub000/internal/shared/logger"
)

const licenseEventChannel = "inplay:license:events"

// LicenseEventMessage is the wire envelope for a license lifecycle event.
type LicenseEventMessage struct {
	ID     string        `json:"id"`
	Source string        `json:"source"`
	Event  license.Event `json:"event"`
}

// LicenseEventHandler is invoked for each received event.
type LicenseEventHandler func(ctx context.Context, msg LicenseEventMessage)

// RedisLicenseEventBus publishes license events on a Redis channel so other
// instances and workers can react to them.
type RedisLicenseEventBus struct {
	client   *redis.Client
	instance string
	logger   logger.Interface
}

func NewRedisLicenseEventBus(client *redis.Client, logger logger.Interface) *RedisLicenseEventBus {
	return &RedisLicenseEventBus{
		client:   client,
		instance: uuid.NewString(),
		logger:   logger,
	}
}

func (b *RedisLicenseEventBus) Publish(ctx context.Context, event license.Event) error {
	data, err := json.Marshal(LicenseEventMessage{
		ID:     uuid.NewString(),
		Source: b.instance,
		Event:  event,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal license event: %w", err)
	}

	if err := b.client.Publish(ctx, licenseEventChannel, data).Err(); err != nil {
		b.logger.Errorw("failed to publish license event",
			"type", event.Type,
			"license_sid", event.LicenseSID,
			"error", err,
		)
		return fmt.Errorf("failed to publish license event: %w", err)
	}

	b.logger.Debugw("license event published",
		"type", event.Type,
		"license_sid", event.LicenseSID,
	)
	return nil
}

// Subscribe blocks delivering events to handler until ctx is cancelled.
func (b *RedisLicenseEventBus) Subscribe(ctx context.Context, handler LicenseEventHandler) error {
	sub := b.client.Subscribe(ctx, licenseEventChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to channel: %w", err)
	}

	b.logger.Infow("subscribed to license events", "channel", licenseEventChannel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				b.logger.Warnw("license event channel closed")
				return nil
			}

			var event LicenseEventMessage
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.logger.Warnw("failed to unmarshal license event",
					"payload", msg.Payload,
					"error", err,
				)
				continue
			}
			handler(ctx, event)
		}
	}
}

// LogEventPublisher records events in the log when no broker is configured.
type LogEventPublisher struct {
	logger logger.Interface
}

func NewLogEventPublisher(logger logger.Interface) *LogEventPublisher {
	return &LogEventPublisher{logger: logger}
}

func (p *LogEventPublisher) Publish(ctx context.Context, event license.Event) error {
	p.logger.Infow("license event",
		"type", event.Type,
		"license_sid", event.LicenseSID,
		"user_id", event.UserID,
		"content_id", event.ContentID,
		"reason", event.Reason,
	)
	return nil
}
