package entitlement

import (
	"context"
	"fmt"
	"time"

	"github.com/hrshiti/inplay-sub000/internal/domain/content"
	"github.com/hrshiti/inplay-sub000/internal/domain/user"
)

// FactSource lazily supplies the facts for one (user, content) pair.
// Decide only asks for what the current rule needs.
type FactSource interface {
	// Content returns nil when the content does not exist.
	Content(ctx context.Context) (*content.Content, error)
	// User returns nil for anonymous callers or unknown users.
	User(ctx context.Context) (*user.User, error)
	HasCompletedPurchase(ctx context.Context) (bool, error)
}

// Decide applies the entitlement rules in order; the first match wins:
//
//  1. missing or unpublished content   -> not_found
//  2. free content                     -> free (anonymous allowed)
//  3. anonymous or unknown user        -> not_logged_in
//  4. subscription active after now    -> subscription
//  5. completed purchase               -> purchased
//  6. otherwise                        -> payment_required
func Decide(ctx context.Context, facts FactSource, now time.Time) (Decision, *content.Content, error) {
	c, err := facts.Content(ctx)
	if err != nil {
		return Decision{}, nil, fmt.Errorf("load content: %w", err)
	}
	if c == nil || !c.IsPublished() {
		return denied(AccessTypeNotFound), c, nil
	}
	if !c.IsPaid {
		return granted(AccessTypeFree), c, nil
	}

	u, err := facts.User(ctx)
	if err != nil {
		return Decision{}, c, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return denied(AccessTypeNotLoggedIn), c, nil
	}
	if u.Subscription.ActiveAt(now) {
		return granted(AccessTypeSubscription), c, nil
	}

	purchased, err := facts.HasCompletedPurchase(ctx)
	if err != nil {
		return Decision{}, c, fmt.Errorf("check purchase: %w", err)
	}
	if purchased {
		return granted(AccessTypePurchased), c, nil
	}

	return denied(AccessTypePaymentRequired), c, nil
}
