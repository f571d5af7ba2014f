// Package entitlement gathers the facts for access decisions and applies the
// domain policy. Every call reads live data; nothing is cached between calls.
package entitlement

import (
	"context"

	"github.com/hrshiti/inplay-sub000/internal/domain/content"
	"github.com/hrshiti/inplay-sub000/internal/domain/entitlement"
	"github.com/hrshiti/inplay-sub000/internal/domain/purchase"
	"github.com/hrshiti/inplay-sub000/internal/domain/user"
	"github.com/hrshiti/inplay-sub000/internal/shared/biztime"
	"github.com/hrshiti/inplay-sub000/internal/shared/logger"
)

// Resolution is a decision plus the content it was made for. Content is nil
// when the item does not exist.
type Resolution struct {
	Decision entitlement.Decision
	Content  *content.Content
}

type Resolver struct {
	contentRepo  content.Repository
	userRepo     user.Repository
	purchaseRepo purchase.Repository
	clock        biztime.Clock
	logger       logger.Interface
}

func NewResolver(
	contentRepo content.Repository,
	userRepo user.Repository,
	purchaseRepo purchase.Repository,
	clock biztime.Clock,
	logger logger.Interface,
) *Resolver {
	return &Resolver{
		contentRepo:  contentRepo,
		userRepo:     userRepo,
		purchaseRepo: purchaseRepo,
		clock:        clock,
		logger:       logger,
	}
}

// Resolve decides whether userID may consume contentID now. An empty userID
// is an anonymous caller.
func (r *Resolver) Resolve(ctx context.Context, userID, contentID string) (*Resolution, error) {
	facts := &lazyFacts{resolver: r, userID: userID, contentID: contentID}

	decision, c, err := entitlement.Decide(ctx, facts, r.clock.Now())
	if err != nil {
		r.logger.Errorw("failed to resolve entitlement",
			"user_id", userID,
			"content_id", contentID,
			"error", err,
		)
		return nil, err
	}

	r.logger.Debugw("entitlement resolved",
		"user_id", userID,
		"content_id", contentID,
		"has_access", decision.HasAccess,
		"access_type", decision.AccessType,
	)
	return &Resolution{Decision: decision, Content: c}, nil
}

// lazyFacts fetches each fact only when the policy asks for it.
type lazyFacts struct {
	resolver  *Resolver
	userID    string
	contentID string
}

func (f *lazyFacts) Content(ctx context.Context) (*content.Content, error) {
	if f.contentID == "" {
		return nil, nil
	}
	return f.resolver.contentRepo.GetByID(ctx, f.contentID)
}

func (f *lazyFacts) User(ctx context.Context) (*user.User, error) {
	if f.userID == "" {
		return nil, nil
	}
	return f.resolver.userRepo.GetByID(ctx, f.userID)
}

func (f *lazyFacts) HasCompletedPurchase(ctx context.Context) (bool, error) {
	return f.resolver.purchaseRepo.HasCompletedPurchase(ctx, f.userID, f.contentID)
}
