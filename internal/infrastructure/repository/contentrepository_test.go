package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/hrshiti/inplay-sub000/internal/domain/content"
	"github.com/hrshiti/inplay-sub000/internal/infrastructure/persistence/models"
	"github.com/hrshiti/inplay-sub000/internal/shared/logger"
)

func TestContentRepository_GetAndCount(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContentRepository(db, logger.NewDiscard())
	ctx := context.Background()

	require.NoError(t, db.Create(&models.ContentModel{
		ID: "c1", Title: "Film", Status: "published", IsPaid: true,
		AssetHost: "remote", AssetLocator: "media/c1.m3u8",
		Renditions: datatypes.JSON(`{"1080p":"media/c1-1080.m3u8"}`),
	}).Error)

	c, err := repo.GetByID(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, content.AssetHostRemote, c.Asset.Host)
	assert.Equal(t, "media/c1-1080.m3u8", c.Asset.LocatorFor("1080p"))

	require.NoError(t, repo.IncrementDownloadCount(ctx, "c1"))
	require.NoError(t, repo.IncrementViewCount(ctx, "c1"))
	require.NoError(t, repo.IncrementViewCount(ctx, "c1"))

	c, err = repo.GetByID(ctx, "c1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, c.DownloadCount)
	assert.EqualValues(t, 2, c.ViewCount)

	missing, err := repo.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestWatchHistoryRepository(t *testing.T) {
	repo := NewWatchHistoryRepository(setupTestDB(t))
	ctx := context.Background()

	seen, err := repo.HasViewSince(ctx, "u1", "c1", baseTime.Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, repo.RecordView(ctx, "u1", "c1", baseTime))

	seen, err = repo.HasViewSince(ctx, "u1", "c1", baseTime.Add(-time.Hour))
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = repo.HasViewSince(ctx, "u1", "c1", baseTime.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = repo.HasViewSince(ctx, "u2", "c1", baseTime.Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestUserAndPurchaseRepositories(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db, logger.NewDiscard())
	purchases := NewPurchaseRepository(db)
	ctx := context.Background()

	end := baseTime.Add(24 * time.Hour)
	require.NoError(t, db.Create(&models.UserModel{ID: "u1", SubscriptionActive: true, SubscriptionEndDate: &end}).Error)
	require.NoError(t, db.Create(&models.PurchaseModel{UserID: "u1", ContentID: "c1", Status: "completed"}).Error)
	require.NoError(t, db.Create(&models.PurchaseModel{UserID: "u1", ContentID: "c2", Status: "refunded"}).Error)

	u, err := users.GetByID(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.True(t, u.Subscription.ActiveAt(baseTime))

	ghost, err := users.GetByID(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, ghost)

	owned, err := purchases.HasCompletedPurchase(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.True(t, owned)

	owned, err = purchases.HasCompletedPurchase(ctx, "u1", "c2")
	require.NoError(t, err)
	assert.False(t, owned)
}
