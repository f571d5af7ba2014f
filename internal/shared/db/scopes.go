package db

import (
	"time"

	"gorm.io/gorm"
)

// ActiveAt keeps rows that are active and not yet past expires_at at now.
// A row whose expires_at equals now is still active.
func ActiveAt(now time.Time) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("is_active = ? AND expires_at >= ?", true, now)
	}
}

// ExpiredAt keeps rows still flagged active whose expires_at lies before now.
func ExpiredAt(now time.Time) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("is_active = ? AND expires_at < ?", true, now)
	}
}
