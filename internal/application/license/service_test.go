package license

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/hrshiti/inplay-sub000/internal/application/delivery"
	appentitlement "github.com/hrshiti/inplay-sub000/internal/application/entitlement"
	"github.com/hrshiti/inplay-sub000/internal/application/license/dto"
	"github.com/hrshiti/inplay-sub000/internal/application/license/usecases"
	"github.com/hrshiti/inplay-sub000/internal/domain/content"
	"github.com/hrshiti/inplay-sub000/internal/domain/license"
	"github.com/hrshiti/inplay-sub000/internal/infrastructure/migration"
	"github.com/hrshiti/inplay-sub000/internal/infrastructure/persistence/models"
	"github.com/hrshiti/inplay-sub000/internal/infrastructure/repository"
	"github.com/hrshiti/inplay-sub000/internal/infrastructure/token"
	"github.com/hrshiti/inplay-sub000/internal/shared/biztime"
	"github.com/hrshiti/inplay-sub000/internal/shared/id"
	"github.com/hrshiti/inplay-sub000/internal/shared/logger"
)

var baseTime = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

type signer struct{}

func (signer) Sign(ctx context.Context, locator string, expiresAt time.Time, opts content.SignOptions) (string, error) {
	return "https://cdn.example.com/" + locator + "?sig=test", nil
}

type lifecycle struct {
	db      *gorm.DB
	clock   *biztime.FixedClock
	service *ServiceImpl
}

func setupLifecycle(t *testing.T) *lifecycle {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	log := logger.NewDiscard()
	require.NoError(t, migration.NewManagerWithStrategy(migration.NewAutoMigrateStrategy(log), log).Migrate(db))

	end := baseTime.Add(365 * 24 * time.Hour)
	require.NoError(t, db.Create(&models.ContentModel{
		ID:           "c1",
		Title:        "Night Train",
		Type:         "movie",
		Status:       string(content.StatusPublished),
		IsPaid:       true,
		AssetHost:    string(content.AssetHostRemote),
		AssetLocator: "videos/c1/master.mp4",
		Renditions:   datatypes.JSON(`{"720p":"videos/c1/720p.mp4"}`),
	}).Error)
	require.NoError(t, db.Create(&models.ContentModel{
		ID:           "free1",
		Title:        "Trailer",
		Status:       string(content.StatusPublished),
		AssetHost:    string(content.AssetHostLocal),
		AssetLocator: "free1.mp4",
	}).Error)
	require.NoError(t, db.Create(&models.UserModel{ID: "u1", SubscriptionActive: true, SubscriptionEndDate: &end}).Error)

	clock := biztime.NewFixedClock(baseTime)
	contentRepo := repository.NewContentRepository(db, log)
	resolver := appentitlement.NewResolver(contentRepo, repository.NewUserRepository(db, log), repository.NewPurchaseRepository(db), clock, log)

	svc := NewService(Dependencies{
		LicenseRepo: repository.NewLicenseRepository(db, log),
		ContentRepo: contentRepo,
		Resolver:    resolver,
		Links:       delivery.NewLinkBuilder(signer{}, "https://media.example.com"),
		Keys:        token.NewLicenseKeyGenerator(),
		NewSID:      id.NewLicenseSID,
		Policy:      usecases.DefaultPolicy(),
		Clock:       clock,
		Logger:      log,
	})

	return &lifecycle{db: db, clock: clock, service: svc}
}

func (lc *lifecycle) issue(t *testing.T, deviceID string) *dto.IssueLicenseResult {
	t.Helper()
	res, err := lc.service.Issue(context.Background(), dto.IssueLicenseCommand{UserID: "u1", ContentID: "c1", DeviceID: deviceID})
	require.NoError(t, err)
	return res
}

func TestLicenseLifecycle(t *testing.T) {
	lc := setupLifecycle(t)
	ctx := context.Background()

	first := lc.issue(t, "d1")
	assert.True(t, token.LooksLikeLicenseKey(first.LicenseKey))
	assert.NoError(t, id.ValidatePrefix(first.License.SID, id.PrefixLicense))
	lc.issue(t, "d2")
	lc.issue(t, "d3")

	_, err := lc.service.Issue(ctx, dto.IssueLicenseCommand{UserID: "u1", ContentID: "c1", DeviceID: "d4"})
	require.ErrorIs(t, err, license.ErrMaxDevicesReached)

	_, err = lc.service.Issue(ctx, dto.IssueLicenseCommand{UserID: "u1", ContentID: "c1", DeviceID: "d1"})
	require.ErrorIs(t, err, license.ErrAlreadyExists)

	var row models.ContentModel
	require.NoError(t, lc.db.First(&row, "id = ?", "c1").Error)
	assert.EqualValues(t, 3, row.DownloadCount)

	lc.clock.Advance(time.Hour)
	valid, err := lc.service.Validate(ctx, dto.ValidateLicenseCommand{LicenseKey: first.LicenseKey, DeviceID: "d1"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, valid.AccessCount)
	assert.Equal(t, "Night Train", valid.License.Content.Title)

	_, err = lc.service.Validate(ctx, dto.ValidateLicenseCommand{LicenseKey: first.LicenseKey, DeviceID: "d2"})
	require.ErrorIs(t, err, license.ErrInvalidLicense)

	revoked, err := lc.service.Revoke(ctx, dto.RevokeLicenseCommand{LicenseKey: first.LicenseKey, UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "revoked", revoked.Status)
	again, err := lc.service.Revoke(ctx, dto.RevokeLicenseCommand{LicenseKey: first.LicenseKey, UserID: "u1"})
	require.NoError(t, err)
	assert.True(t, again.AlreadyInactive)

	active, err := lc.service.ListActive(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, active, 2)

	// revocation freed a device slot
	lc.issue(t, "d4")
}

func TestLicenseLifecycle_ExpiryAndSweep(t *testing.T) {
	lc := setupLifecycle(t)
	ctx := context.Background()

	first := lc.issue(t, "d1")
	lc.issue(t, "d2")
	assert.Equal(t, baseTime.Add(30*24*time.Hour), first.License.ExpiresAt)

	lc.clock.Set(baseTime.Add(31 * 24 * time.Hour))

	_, err := lc.service.Validate(ctx, dto.ValidateLicenseCommand{LicenseKey: first.LicenseKey, DeviceID: "d1"})
	require.ErrorIs(t, err, license.ErrExpired)

	n, err := lc.service.ExpireLicenses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "the lazily expired license is not counted again")

	var before []models.DownloadLicenseModel
	require.NoError(t, lc.db.Order("id").Find(&before).Error)

	n, err = lc.service.ExpireLicenses(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	var after []models.DownloadLicenseModel
	require.NoError(t, lc.db.Order("id").Find(&after).Error)
	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].IsActive, after[i].IsActive)
		assert.Equal(t, before[i].RevokeReason, after[i].RevokeReason)
		assert.Equal(t, before[i].RevokedAt, after[i].RevokedAt)
	}
	for _, m := range after {
		assert.False(t, m.IsActive)
		assert.Equal(t, license.ReasonExpired, m.RevokeReason)
	}
}

func TestLicenseLifecycle_SubscriptionCancelled(t *testing.T) {
	lc := setupLifecycle(t)
	ctx := context.Background()
	first := lc.issue(t, "d1")

	require.NoError(t, lc.db.Model(&models.UserModel{}).Where("id = ?", "u1").Update("subscription_active", false).Error)

	_, err := lc.service.Validate(ctx, dto.ValidateLicenseCommand{LicenseKey: first.LicenseKey, DeviceID: "d1"})
	require.ErrorIs(t, err, license.ErrAccessRevoked)

	var m models.DownloadLicenseModel
	require.NoError(t, lc.db.First(&m, "sid = ?", first.License.SID).Error)
	assert.False(t, m.IsActive)
	assert.Equal(t, license.ReasonAccessRevoked, m.RevokeReason)
}

func TestLicenseLifecycle_FreeContentNotDownloadable(t *testing.T) {
	lc := setupLifecycle(t)

	_, err := lc.service.Issue(context.Background(), dto.IssueLicenseCommand{UserID: "u1", ContentID: "free1", DeviceID: "d1"})
	assert.ErrorIs(t, err, license.ErrAccessDenied)
}
