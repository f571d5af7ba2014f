// Package user holds the subscriber read model consumed by entitlement checks.
package user

import (
	"context"
	"time"
)

type Subscription struct {
	IsActive bool
	EndDate  time.Time
}

// ActiveAt reports whether the subscription is flagged active and ends after now.
func (s *Subscription) ActiveAt(now time.Time) bool {
	return s != nil && s.IsActive && s.EndDate.After(now)
}

type User struct {
	ID           string
	Subscription *Subscription
}

// Repository returns (nil, nil) when the user does not exist.
type Repository interface {
	GetByID(ctx context.Context, id string) (*User, error)
}
