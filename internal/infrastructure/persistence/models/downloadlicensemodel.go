package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/hrshiti/inplay-sub000/internal/shared/constants"
)

// DownloadLicenseModel is the persistence model for download licenses.
// Only the SHA-256 hash of the license key is stored.
type DownloadLicenseModel struct {
	ID              uint           `gorm:"primarykey"`
	SID             string         `gorm:"column:sid;not null;size:32;uniqueIndex:idx_download_licenses_sid"`
	LicenseKeyHash  string         `gorm:"not null;size:64;uniqueIndex:idx_download_licenses_key_hash"`
	UserID          string         `gorm:"not null;size:64;index:idx_download_licenses_user_content,priority:1"`
	ContentID       string         `gorm:"not null;size:64;index:idx_download_licenses_user_content,priority:2"`
	DeviceID        string         `gorm:"not null;size:128;index:idx_download_licenses_device"`
	DeviceInfo      datatypes.JSON `gorm:"type:json"`
	IssuedAt        time.Time      `gorm:"not null"`
	ExpiresAt       time.Time      `gorm:"not null;index:idx_download_licenses_expires;index:idx_download_licenses_active_expires,priority:2"`
	LastAccessedAt  *time.Time
	AccessCount     int64          `gorm:"not null;default:0"`
	IsActive        bool           `gorm:"not null;index:idx_download_licenses_active_expires,priority:1"`
	RevokedAt       *time.Time
	RevokeReason    string         `gorm:"size:255"`
	ContentSnapshot datatypes.JSON `gorm:"type:json"`
	Quality         string         `gorm:"size:20"`
	Format          string         `gorm:"size:20"`
	AbuseFlaggedAt  *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Version         int `gorm:"not null;default:1"`
}

func (DownloadLicenseModel) TableName() string {
	return constants.TableDownloadLicenses
}

// LicenseDeviceSlotModel has one row per (user, content) pair. Issuance locks
// it so that device-limit checks for the pair are serialized.
type LicenseDeviceSlotModel struct {
	ID        uint   `gorm:"primarykey"`
	UserID    string `gorm:"not null;size:64;uniqueIndex:idx_license_device_slots_pair,priority:1"`
	ContentID string `gorm:"not null;size:64;uniqueIndex:idx_license_device_slots_pair,priority:2"`
	CreatedAt time.Time
}

func (LicenseDeviceSlotModel) TableName() string {
	return constants.TableLicenseDeviceSlots
}
