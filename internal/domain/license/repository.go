package license

import (
	"context"
	"time"
)

// Repository persists licenses. Lookups return (nil, nil) when nothing matches.
type Repository interface {
	// CreateWithinDeviceLimit expires stale licenses of the (user, content)
	// pair and inserts l in one atomic step. It returns ErrAlreadyExists when
	// the device already holds a usable license, ErrMaxDevicesReached when
	// maxDevices usable licenses exist, and ErrKeyCollision when the key hash
	// is taken.
	CreateWithinDeviceLimit(ctx context.Context, l *License, maxDevices int, now time.Time) error

	GetBySID(ctx context.Context, sid string) (*License, error)
	GetByKeyHash(ctx context.Context, keyHash string) (*License, error)

	// FindActiveByKeyAndDevice matches only active licenses bound to deviceID.
	FindActiveByKeyAndDevice(ctx context.Context, keyHash, deviceID string) (*License, error)

	// ListActiveByUser returns licenses active and unexpired at now, newest first.
	ListActiveByUser(ctx context.Context, userID string, now time.Time) ([]*License, error)

	// UpdateLifecycle persists a terminal transition only if the row is still
	// active. It reports whether this call performed the transition.
	UpdateLifecycle(ctx context.Context, l *License) (bool, error)

	// IncrementAccess bumps access_count atomically and returns the new value.
	IncrementAccess(ctx context.Context, id uint, at time.Time) (int64, error)

	MarkAbuseFlagged(ctx context.Context, id uint, at time.Time) error

	// FindExpiredActive returns up to limit active licenses whose expiry is before now.
	FindExpiredActive(ctx context.Context, now time.Time, limit int) ([]*License, error)

	// ExpireBatch marks the given still-overdue licenses expired at now and
	// returns the ids it actually changed.
	ExpireBatch(ctx context.Context, ids []uint, now time.Time) ([]uint, error)
}
