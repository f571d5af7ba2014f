// Package purchase exposes completed one-off content purchases.
package purchase

import "context"

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusRefunded  Status = "refunded"
)

// Repository answers whether a user owns a content item outright.
type Repository interface {
	HasCompletedPurchase(ctx context.Context, userID, contentID string) (bool, error)
}
