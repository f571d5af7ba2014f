package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/hrshiti/inplay-sub000/internal/shared/constants"
)

// ContentModel is the catalog row read by entitlement checks.
type ContentModel struct {
	ID              string `gorm:"primarykey;size:64"`
	Title           string `gorm:"not null;size:255"`
	Type            string `gorm:"size:32"`
	Status          string `gorm:"not null;size:20;index:idx_contents_status"`
	IsPaid          bool   `gorm:"not null"`
	AssetHost       string `gorm:"size:20"`
	AssetLocator    string `gorm:"size:512"`
	DurationSeconds int
	Renditions      datatypes.JSON `gorm:"type:json"`
	PosterURL       string         `gorm:"size:512"`
	DownloadCount   int64          `gorm:"not null;default:0"`
	ViewCount       int64          `gorm:"not null;default:0"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (ContentModel) TableName() string {
	return constants.TableContents
}

// UserModel carries the subscription state of a subscriber.
type UserModel struct {
	ID                  string `gorm:"primarykey;size:64"`
	SubscriptionActive  bool   `gorm:"not null"`
	SubscriptionEndDate *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (UserModel) TableName() string {
	return constants.TableUsers
}

type PurchaseModel struct {
	ID          uint   `gorm:"primarykey"`
	UserID      string `gorm:"not null;size:64;index:idx_purchases_owner,priority:1"`
	ContentID   string `gorm:"not null;size:64;index:idx_purchases_owner,priority:2"`
	Status      string `gorm:"not null;size:20;index:idx_purchases_owner,priority:3"`
	CompletedAt *time.Time
	CreatedAt   time.Time
}

func (PurchaseModel) TableName() string {
	return constants.TablePurchases
}

type WatchHistoryModel struct {
	ID        uint      `gorm:"primarykey"`
	UserID    string    `gorm:"not null;size:64;index:idx_watch_history_view,priority:1"`
	ContentID string    `gorm:"not null;size:64;index:idx_watch_history_view,priority:2"`
	ViewedAt  time.Time `gorm:"not null;index:idx_watch_history_view,priority:3"`
}

func (WatchHistoryModel) TableName() string {
	return constants.TableWatchHistory
}
