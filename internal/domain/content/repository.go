package content

import (
	"context"
	"time"
)

// Repository reads content and bumps its counters.
// GetByID returns (nil, nil) when the content does not exist.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Content, error)
	IncrementDownloadCount(ctx context.Context, id string) error
	IncrementViewCount(ctx context.Context, id string) error
}

// WatchHistoryRepository records stream views used for view-count deduplication.
type WatchHistoryRepository interface {
	HasViewSince(ctx context.Context, userID, contentID string, since time.Time) (bool, error)
	RecordView(ctx context.Context, userID, contentID string, at time.Time) error
}

// SignOptions carries optional response overrides for a signed URL.
type SignOptions struct {
	// ContentDisposition, when set, is returned by storage on download.
	ContentDisposition string
}

// URLSigner produces a time-limited URL for a remote asset locator.
type URLSigner interface {
	Sign(ctx context.Context, locator string, expiresAt time.Time, opts SignOptions) (string, error)
}
