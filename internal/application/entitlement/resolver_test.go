package entitlement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrshiti/inplay-sub000/internal/domain/content"
	"github.com/hrshiti/inplay-sub000/internal/domain/entitlement"
	"github.com/hrshiti/inplay-sub000/internal/domain/user"
	"github.com/hrshiti/inplay-sub000/internal/shared/biztime"
	"github.com/hrshiti/inplay-sub000/internal/shared/logger"
)

type mockContentRepository struct {
	GetByIDFunc func(ctx context.Context, id string) (*content.Content, error)
	calls       int
}

func (m *mockContentRepository) GetByID(ctx context.Context, id string) (*content.Content, error) {
	m.calls++
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockContentRepository) IncrementDownloadCount(ctx context.Context, id string) error {
	return nil
}

func (m *mockContentRepository) IncrementViewCount(ctx context.Context, id string) error {
	return nil
}

type mockUserRepository struct {
	GetByIDFunc func(ctx context.Context, id string) (*user.User, error)
	calls       int
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	m.calls++
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

type mockPurchaseRepository struct {
	HasCompletedPurchaseFunc func(ctx context.Context, userID, contentID string) (bool, error)
	calls                    int
}

func (m *mockPurchaseRepository) HasCompletedPurchase(ctx context.Context, userID, contentID string) (bool, error) {
	m.calls++
	if m.HasCompletedPurchaseFunc != nil {
		return m.HasCompletedPurchaseFunc(ctx, userID, contentID)
	}
	return false, nil
}

var now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func paidContent() *content.Content {
	return &content.Content{ID: "c1", Status: content.StatusPublished, IsPaid: true}
}

func newResolver(c *mockContentRepository, u *mockUserRepository, p *mockPurchaseRepository) *Resolver {
	return NewResolver(c, u, p, biztime.NewFixedClock(now), logger.NewDiscard())
}

func TestResolver_Subscriber(t *testing.T) {
	contents := &mockContentRepository{GetByIDFunc: func(ctx context.Context, id string) (*content.Content, error) {
		return paidContent(), nil
	}}
	users := &mockUserRepository{GetByIDFunc: func(ctx context.Context, id string) (*user.User, error) {
		return &user.User{ID: id, Subscription: &user.Subscription{IsActive: true, EndDate: now.Add(24 * time.Hour)}}, nil
	}}
	purchases := &mockPurchaseRepository{}

	res, err := newResolver(contents, users, purchases).Resolve(context.Background(), "u1", "c1")
	require.NoError(t, err)
	assert.True(t, res.Decision.HasAccess)
	assert.Equal(t, entitlement.AccessTypeSubscription, res.Decision.AccessType)
	assert.Equal(t, "c1", res.Content.ID)
	assert.Zero(t, purchases.calls, "purchase lookup skipped when subscription grants access")
}

func TestResolver_AnonymousFreeContentSkipsUserLookup(t *testing.T) {
	contents := &mockContentRepository{GetByIDFunc: func(ctx context.Context, id string) (*content.Content, error) {
		return &content.Content{ID: id, Status: content.StatusPublished}, nil
	}}
	users := &mockUserRepository{}

	res, err := newResolver(contents, users, &mockPurchaseRepository{}).Resolve(context.Background(), "", "c1")
	require.NoError(t, err)
	assert.Equal(t, entitlement.AccessTypeFree, res.Decision.AccessType)
	assert.Zero(t, users.calls)
}

func TestResolver_AnonymousPaidContent(t *testing.T) {
	contents := &mockContentRepository{GetByIDFunc: func(ctx context.Context, id string) (*content.Content, error) {
		return paidContent(), nil
	}}
	users := &mockUserRepository{}

	res, err := newResolver(contents, users, &mockPurchaseRepository{}).Resolve(context.Background(), "", "c1")
	require.NoError(t, err)
	assert.False(t, res.Decision.HasAccess)
	assert.Equal(t, entitlement.AccessTypeNotLoggedIn, res.Decision.AccessType)
	assert.Zero(t, users.calls)
}

func TestResolver_NotMemoized(t *testing.T) {
	purchased := false
	contents := &mockContentRepository{GetByIDFunc: func(ctx context.Context, id string) (*content.Content, error) {
		return paidContent(), nil
	}}
	users := &mockUserRepository{GetByIDFunc: func(ctx context.Context, id string) (*user.User, error) {
		return &user.User{ID: id}, nil
	}}
	purchases := &mockPurchaseRepository{HasCompletedPurchaseFunc: func(ctx context.Context, userID, contentID string) (bool, error) {
		return purchased, nil
	}}
	r := newResolver(contents, users, purchases)

	res, err := r.Resolve(context.Background(), "u1", "c1")
	require.NoError(t, err)
	assert.Equal(t, entitlement.AccessTypePaymentRequired, res.Decision.AccessType)

	purchased = true
	res, err = r.Resolve(context.Background(), "u1", "c1")
	require.NoError(t, err)
	assert.Equal(t, entitlement.AccessTypePurchased, res.Decision.AccessType)
	assert.Equal(t, 2, contents.calls)
}

func TestResolver_MissingContent(t *testing.T) {
	res, err := newResolver(&mockContentRepository{}, &mockUserRepository{}, &mockPurchaseRepository{}).
		Resolve(context.Background(), "u1", "missing")
	require.NoError(t, err)
	assert.Equal(t, entitlement.AccessTypeNotFound, res.Decision.AccessType)
	assert.Nil(t, res.Content)
}

func TestResolver_PropagatesStoreError(t *testing.T) {
	boom := errors.New("db down")
	contents := &mockContentRepository{GetByIDFunc: func(ctx context.Context, id string) (*content.Content, error) {
		return nil, boom
	}}

	_, err := newResolver(contents, &mockUserRepository{}, &mockPurchaseRepository{}).Resolve(context.Background(), "u1", "c1")
	assert.ErrorIs(t, err, boom)
}
