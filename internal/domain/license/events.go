package license

import (
	"context"
	"time"
)

type EventType string

const (
	EventIssued       EventType = "license.issued"
	EventExpired      EventType = "license.expired"
	EventRevoked      EventType = "license.revoked"
	EventAbuseFlagged EventType = "license.abuse_flagged"
)

// Event describes a lifecycle change for downstream consumers.
type Event struct {
	Type       EventType `json:"type"`
	LicenseSID string    `json:"license_sid"`
	UserID     string    `json:"user_id"`
	ContentID  string    `json:"content_id"`
	DeviceID   string    `json:"device_id"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewEvent builds an event for l at now.
func NewEvent(t EventType, l *License, now time.Time) Event {
	return Event{
		Type:       t,
		LicenseSID: l.SID(),
		UserID:     l.UserID(),
		ContentID:  l.ContentID(),
		DeviceID:   l.DeviceID(),
		Reason:     l.RevokeReason(),
		OccurredAt: now,
	}
}

// EventPublisher delivers lifecycle events. Delivery is best-effort.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}
