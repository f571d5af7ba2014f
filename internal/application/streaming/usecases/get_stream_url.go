// Package usecases implements playback URL issuance.
package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/hrshiti/inplay-sub000/internal/application/delivery"
	"github.com/hrshiti/inplay-sub000/internal/application/entitlement"
	"github.com/hrshiti/inplay-sub000/internal/domain/content"
	"github.com/hrshiti/inplay-sub000/internal/domain/license"
	"github.com/hrshiti/inplay-sub000/internal/shared/biztime"
	"github.com/hrshiti/inplay-sub000/internal/shared/logger"
)

// viewWindow is the period in which repeat views by one user count once.
const viewWindow = time.Hour

type EntitlementResolver interface {
	Resolve(ctx context.Context, userID, contentID string) (*entitlement.Resolution, error)
}

type LinkBuilder interface {
	Build(ctx context.Context, host content.AssetHost, locator string, expiresAt time.Time, opts content.SignOptions) (delivery.Link, error)
}

type Metrics interface {
	StreamURLIssued(host string)
}

type GetStreamURLQuery struct {
	ContentID string
	// UserID is empty for anonymous callers.
	UserID  string
	Quality string
}

type StreamURLResult struct {
	URL string `json:"url"`
	// ExpiresIn is the lifetime in seconds; 0 means the URL does not expire.
	ExpiresIn  int64  `json:"expires_in"`
	AccessType string `json:"access_type"`
}

type GetStreamURLUseCase struct {
	resolver     EntitlementResolver
	links        LinkBuilder
	contentRepo  content.Repository
	historyRepo  content.WatchHistoryRepository
	metrics      Metrics
	streamExpiry time.Duration
	clock        biztime.Clock
	logger       logger.Interface
}

func NewGetStreamURLUseCase(
	resolver EntitlementResolver,
	links LinkBuilder,
	contentRepo content.Repository,
	historyRepo content.WatchHistoryRepository,
	metrics Metrics,
	streamExpiry time.Duration,
	clock biztime.Clock,
	logger logger.Interface,
) *GetStreamURLUseCase {
	return &GetStreamURLUseCase{
		resolver:     resolver,
		links:        links,
		contentRepo:  contentRepo,
		historyRepo:  historyRepo,
		metrics:      metrics,
		streamExpiry: streamExpiry,
		clock:        clock,
		logger:       logger,
	}
}

// Execute returns a playback URL for any caller the lenient stream policy admits.
func (uc *GetStreamURLUseCase) Execute(ctx context.Context, query GetStreamURLQuery) (*StreamURLResult, error) {
	res, err := uc.resolver.Resolve(ctx, query.UserID, query.ContentID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve entitlement: %w", err)
	}
	if !res.Decision.GrantsStream() {
		return nil, license.NewError(license.KindAccessDenied, "", map[string]any{
			"access_type": res.Decision.AccessType.String(),
		})
	}

	c := res.Content
	locator := c.Asset.LocatorFor(query.Quality)
	if locator == "" {
		return nil, license.NewError(license.KindContentUnavailable, "asset_missing", map[string]any{
			"content_id": c.ID,
		})
	}

	now := uc.clock.Now()
	link, err := uc.links.Build(ctx, c.Asset.Host, locator, now.Add(uc.streamExpiry), content.SignOptions{})
	if err != nil {
		uc.logger.Errorw("failed to build stream url", "content_id", c.ID, "error", err)
		return nil, fmt.Errorf("failed to build stream url: %w", err)
	}

	uc.countView(ctx, query.UserID, c.ID, now)
	if uc.metrics != nil {
		uc.metrics.StreamURLIssued(string(c.Asset.Host))
	}

	return &StreamURLResult{
		URL:        link.URL,
		ExpiresIn:  link.ExpiresInSeconds(now),
		AccessType: res.Decision.AccessType.String(),
	}, nil
}

// countView bumps the view counter at most once per user and content per
// viewWindow. Anonymous views are not counted. Failures are only logged.
func (uc *GetStreamURLUseCase) countView(ctx context.Context, userID, contentID string, now time.Time) {
	if userID == "" {
		return
	}

	seen, err := uc.historyRepo.HasViewSince(ctx, userID, contentID, now.Add(-viewWindow))
	if err != nil {
		uc.logger.Warnw("failed to check watch history", "user_id", userID, "content_id", contentID, "error", err)
		return
	}
	if seen {
		return
	}

	if err := uc.historyRepo.RecordView(ctx, userID, contentID, now); err != nil {
		uc.logger.Warnw("failed to record view", "user_id", userID, "content_id", contentID, "error", err)
		return
	}
	if err := uc.contentRepo.IncrementViewCount(ctx, contentID); err != nil {
		uc.logger.Warnw("failed to increment view count", "content_id", contentID, "error", err)
	}
}
