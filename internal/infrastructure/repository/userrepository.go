package repository

import (
	"context"
	stderrors "errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/hrshiti/inplay-sub000/internal/domain/purchase"
	"github.com/hrshiti/inplay-sub000/internal/domain/user"
	"github.com/hrshiti/inplay-sub000/internal/infrastructure/persistence/mappers"
	"github.com/hrshiti/inplay-sub000/internal/infrastructure/persistence/models"
	"github.com/hrshiti/inplay-sub000/internal/shared/db"
	"github.com/hrshiti/inplay-sub000/internal/shared/logger"
)

type UserRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewUserRepository(db *gorm.DB, logger logger.Interface) *UserRepositoryImpl {
	return &UserRepositoryImpl{db: db, logger: logger}
}

func (r *UserRepositoryImpl) GetByID(ctx context.Context, id string) (*user.User, error) {
	var model models.UserModel
	if err := db.GetTxFromContext(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get user", "user_id", id, "error", err)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return mappers.UserToEntity(&model), nil
}

type PurchaseRepositoryImpl struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) *PurchaseRepositoryImpl {
	return &PurchaseRepositoryImpl{db: db}
}

func (r *PurchaseRepositoryImpl) HasCompletedPurchase(ctx context.Context, userID, contentID string) (bool, error) {
	var count int64
	if err := db.GetTxFromContext(ctx, r.db).
		Model(&models.PurchaseModel{}).
		Where("user_id = ? AND content_id = ? AND status = ?", userID, contentID, string(purchase.StatusCompleted)).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check purchase: %w", err)
	}
	return count > 0, nil
}
