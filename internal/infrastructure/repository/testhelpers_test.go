package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/hrshiti/inplay-sub000/internal/domain/content"
	"github.com/hrshiti/inplay-sub000/internal/domain/license"
	"github.com/hrshiti/inplay-sub000/internal/infrastructure/persistence/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// a single connection keeps the in-memory database alive and serializes writers
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.DownloadLicenseModel{},
		&models.LicenseDeviceSlotModel{},
		&models.ContentModel{},
		&models.UserModel{},
		&models.PurchaseModel{},
		&models.WatchHistoryModel{},
	))
	return db
}

var baseTime = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func newLicense(t *testing.T, sid, keyHash, userID, contentID, deviceID string, issuedAt time.Time, validity time.Duration) *license.License {
	t.Helper()
	l, err := license.NewLicense(license.IssueParams{
		SID:       sid,
		KeyHash:   keyHash,
		UserID:    userID,
		ContentID: contentID,
		DeviceID:  deviceID,
		Snapshot: license.ContentSnapshot{
			Title:        "Film",
			AssetHost:    content.AssetHostRemote,
			AssetLocator: "media/" + contentID + ".mp4",
		},
		IssuedAt: issuedAt,
		Validity: validity,
	})
	require.NoError(t, err)
	return l
}
