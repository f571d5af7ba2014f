package repository

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/hrshiti/inplay-sub000/internal/domain/content"
	"github.com/hrshiti/inplay-sub000/internal/infrastructure/persistence/mappers"
	"github.com/hrshiti/inplay-sub000/internal/infrastructure/persistence/models"
	"github.com/hrshiti/inplay-sub000/internal/shared/db"
	"github.com/hrshiti/inplay-sub000/internal/shared/logger"
)

// ContentRepositoryImpl reads the catalog table and maintains its counters.
type ContentRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewContentRepository(db *gorm.DB, logger logger.Interface) *ContentRepositoryImpl {
	return &ContentRepositoryImpl{db: db, logger: logger}
}

func (r *ContentRepositoryImpl) GetByID(ctx context.Context, id string) (*content.Content, error) {
	var model models.ContentModel
	if err := db.GetTxFromContext(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get content", "content_id", id, "error", err)
		return nil, fmt.Errorf("failed to get content: %w", err)
	}
	return mappers.ContentToEntity(&model)
}

func (r *ContentRepositoryImpl) IncrementDownloadCount(ctx context.Context, id string) error {
	return r.increment(ctx, id, "download_count")
}

func (r *ContentRepositoryImpl) IncrementViewCount(ctx context.Context, id string) error {
	return r.increment(ctx, id, "view_count")
}

func (r *ContentRepositoryImpl) increment(ctx context.Context, id, column string) error {
	if err := db.GetTxFromContext(ctx, r.db).
		Model(&models.ContentModel{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + 1")).Error; err != nil {
		return fmt.Errorf("failed to increment %s: %w", column, err)
	}
	return nil
}

// WatchHistoryRepositoryImpl stores stream views.
type WatchHistoryRepositoryImpl struct {
	db *gorm.DB
}

func NewWatchHistoryRepository(db *gorm.DB) *WatchHistoryRepositoryImpl {
	return &WatchHistoryRepositoryImpl{db: db}
}

func (r *WatchHistoryRepositoryImpl) HasViewSince(ctx context.Context, userID, contentID string, since time.Time) (bool, error) {
	var count int64
	if err := db.GetTxFromContext(ctx, r.db).
		Model(&models.WatchHistoryModel{}).
		Where("user_id = ? AND content_id = ? AND viewed_at > ?", userID, contentID, since).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check watch history: %w", err)
	}
	return count > 0, nil
}

func (r *WatchHistoryRepositoryImpl) RecordView(ctx context.Context, userID, contentID string, at time.Time) error {
	if err := db.GetTxFromContext(ctx, r.db).Create(&models.WatchHistoryModel{
		UserID:    userID,
		ContentID: contentID,
		ViewedAt:  at,
	}).Error; err != nil {
		return fmt.Errorf("failed to record view: %w", err)
	}
	return nil
}
