package repository

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hrshiti/inplay-sub000/internal/domain/license"
	"github.com/hrshiti/inplay-sub000/internal/infrastructure/persistence/mappers"
	"github.com/hrshiti/inplay-sub000/internal/infrastructure/persistence/models"
	"github.com/hrshiti/inplay-sub000/internal/shared/db"
	"github.com/hrshiti/inplay-sub000/internal/shared/errors"
	"github.com/hrshiti/inplay-sub000/internal/shared/logger"
)

// LicenseRepositoryImpl implements license.Repository on gorm.
type LicenseRepositoryImpl struct {
	db        *gorm.DB
	txManager *db.TransactionManager
	mapper    mappers.LicenseMapper
	logger    logger.Interface
}

func NewLicenseRepository(gormDB *gorm.DB, logger logger.Interface) *LicenseRepositoryImpl {
	return &LicenseRepositoryImpl{
		db:        gormDB,
		txManager: db.NewTransactionManager(gormDB),
		mapper:    mappers.NewLicenseMapper(),
		logger:    logger,
	}
}

// CreateWithinDeviceLimit serializes issuance per (user, content) on the slot
// row, then expires stale rows, checks the device rules and inserts. It joins
// a transaction already carried by ctx.
func (r *LicenseRepositoryImpl) CreateWithinDeviceLimit(ctx context.Context, l *license.License, maxDevices int, now time.Time) error {
	model, err := r.mapper.ToModel(l)
	if err != nil {
		return fmt.Errorf("failed to map license to model: %w", err)
	}

	err = r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		tx := db.GetTxFromContext(ctx, r.db)
		slot := models.LicenseDeviceSlotModel{UserID: l.UserID(), ContentID: l.ContentID(), CreatedAt: now}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&slot).Error; err != nil {
			return fmt.Errorf("failed to ensure device slot: %w", err)
		}
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND content_id = ?", l.UserID(), l.ContentID()).
			First(&models.LicenseDeviceSlotModel{}).Error; err != nil {
			return fmt.Errorf("failed to lock device slot: %w", err)
		}

		if _, err := expireStale(tx.Where("user_id = ? AND content_id = ?", l.UserID(), l.ContentID()), now); err != nil {
			return fmt.Errorf("failed to expire stale licenses: %w", err)
		}

		var existing models.DownloadLicenseModel
		err := tx.Scopes(db.ActiveAt(now)).
			Where("user_id = ? AND content_id = ? AND device_id = ?", l.UserID(), l.ContentID(), l.DeviceID()).
			First(&existing).Error
		if err == nil {
			return license.NewError(license.KindAlreadyExists, "one_license_per_device", map[string]any{
				"license_sid": existing.SID,
				"expires_at":  existing.ExpiresAt.UTC(),
			})
		}
		if !stderrors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check device license: %w", err)
		}

		var active int64
		if err := tx.Model(&models.DownloadLicenseModel{}).Scopes(db.ActiveAt(now)).
			Where("user_id = ? AND content_id = ?", l.UserID(), l.ContentID()).
			Count(&active).Error; err != nil {
			return fmt.Errorf("failed to count active licenses: %w", err)
		}
		if active >= int64(maxDevices) {
			return license.NewError(license.KindMaxDevicesReached, "max_devices", map[string]any{
				"limit":  maxDevices,
				"active": active,
			})
		}

		if err := tx.Create(model).Error; err != nil {
			if errors.IsDuplicateError(err) {
				return license.ErrKeyCollision
			}
			return fmt.Errorf("failed to insert license: %w", err)
		}
		return nil
	})
	if err != nil {
		var licErr *license.Error
		if !stderrors.As(err, &licErr) && !stderrors.Is(err, license.ErrKeyCollision) {
			r.logger.Errorw("failed to create license",
				"user_id", l.UserID(),
				"content_id", l.ContentID(),
				"device_id", l.DeviceID(),
				"error", err)
		}
		return err
	}

	if err := l.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set license ID: %w", err)
	}

	r.logger.Infow("license created",
		"id", model.ID,
		"sid", model.SID,
		"user_id", model.UserID,
		"content_id", model.ContentID)

	return nil
}

func (r *LicenseRepositoryImpl) GetBySID(ctx context.Context, sid string) (*license.License, error) {
	return r.findOne(ctx, "get license by sid", func(q *gorm.DB) *gorm.DB {
		return q.Where("sid = ?", sid)
	})
}

func (r *LicenseRepositoryImpl) GetByKeyHash(ctx context.Context, keyHash string) (*license.License, error) {
	return r.findOne(ctx, "get license by key", func(q *gorm.DB) *gorm.DB {
		return q.Where("license_key_hash = ?", keyHash)
	})
}

func (r *LicenseRepositoryImpl) FindActiveByKeyAndDevice(ctx context.Context, keyHash, deviceID string) (*license.License, error) {
	return r.findOne(ctx, "find active license", func(q *gorm.DB) *gorm.DB {
		return q.Where("license_key_hash = ? AND device_id = ? AND is_active = ?", keyHash, deviceID, true)
	})
}

func (r *LicenseRepositoryImpl) findOne(ctx context.Context, op string, scope func(*gorm.DB) *gorm.DB) (*license.License, error) {
	var model models.DownloadLicenseModel
	if err := scope(db.GetTxFromContext(ctx, r.db)).First(&model).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to "+op, "error", err)
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return r.mapper.ToEntity(&model)
}

func (r *LicenseRepositoryImpl) ListActiveByUser(ctx context.Context, userID string, now time.Time) ([]*license.License, error) {
	var list []*models.DownloadLicenseModel
	if err := db.GetTxFromContext(ctx, r.db).
		Scopes(db.ActiveAt(now)).
		Where("user_id = ?", userID).
		Order("issued_at DESC, id DESC").
		Find(&list).Error; err != nil {
		r.logger.Errorw("failed to list active licenses", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to list active licenses: %w", err)
	}
	return r.mapper.ToEntities(list)
}

// UpdateLifecycle writes the terminal state only while the row is still active,
// so racing revoke and expire calls settle on whichever commits first.
func (r *LicenseRepositoryImpl) UpdateLifecycle(ctx context.Context, l *license.License) (bool, error) {
	if l.IsActive() {
		return false, fmt.Errorf("license %s has no lifecycle change to persist", l.SID())
	}

	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.DownloadLicenseModel{}).
		Where("id = ? AND is_active = ?", l.ID(), true).
		Updates(map[string]any{
			"is_active":     false,
			"revoked_at":    l.RevokedAt(),
			"revoke_reason": l.RevokeReason(),
			"updated_at":    l.UpdatedAt(),
			"version":       gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update license lifecycle", "sid", l.SID(), "error", result.Error)
		return false, fmt.Errorf("failed to update license lifecycle: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// IncrementAccess returns license.ErrInvalidLicense when the license was
// deactivated concurrently.
func (r *LicenseRepositoryImpl) IncrementAccess(ctx context.Context, id uint, at time.Time) (int64, error) {
	var count int64
	err := r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		tx := db.GetTxFromContext(ctx, r.db)
		result := tx.Model(&models.DownloadLicenseModel{}).
			Where("id = ? AND is_active = ?", id, true).
			Updates(map[string]any{
				"access_count":     gorm.Expr("access_count + 1"),
				"last_accessed_at": at,
				"updated_at":       at,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return license.ErrInvalidLicense
		}
		var counts []int64
		if err := tx.Model(&models.DownloadLicenseModel{}).
			Where("id = ?", id).
			Pluck("access_count", &counts).Error; err != nil {
			return err
		}
		if len(counts) == 1 {
			count = counts[0]
		}
		return nil
	})
	if err != nil {
		if stderrors.Is(err, license.ErrInvalidLicense) {
			return 0, err
		}
		r.logger.Errorw("failed to increment license access", "id", id, "error", err)
		return 0, fmt.Errorf("failed to increment license access: %w", err)
	}
	return count, nil
}

func (r *LicenseRepositoryImpl) MarkAbuseFlagged(ctx context.Context, id uint, at time.Time) error {
	if err := db.GetTxFromContext(ctx, r.db).
		Model(&models.DownloadLicenseModel{}).
		Where("id = ? AND abuse_flagged_at IS NULL", id).
		Updates(map[string]any{"abuse_flagged_at": at, "updated_at": at}).Error; err != nil {
		r.logger.Errorw("failed to flag license", "id", id, "error", err)
		return fmt.Errorf("failed to flag license: %w", err)
	}
	return nil
}

func (r *LicenseRepositoryImpl) FindExpiredActive(ctx context.Context, now time.Time, limit int) ([]*license.License, error) {
	var list []*models.DownloadLicenseModel
	if err := db.GetTxFromContext(ctx, r.db).
		Scopes(db.ExpiredAt(now)).
		Order("id ASC").
		Limit(limit).
		Find(&list).Error; err != nil {
		r.logger.Errorw("failed to find expired licenses", "error", err)
		return nil, fmt.Errorf("failed to find expired licenses: %w", err)
	}
	return r.mapper.ToEntities(list)
}

// ExpireBatch locks the still-overdue rows among ids, expires them and
// returns the ids it changed. Rows revoked or expired concurrently are left out.
func (r *LicenseRepositoryImpl) ExpireBatch(ctx context.Context, ids []uint, now time.Time) ([]uint, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var expired []uint
	err := r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		tx := db.GetTxFromContext(ctx, r.db)
		if err := tx.Model(&models.DownloadLicenseModel{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Scopes(db.ExpiredAt(now)).
			Where("id IN ?", ids).
			Order("id ASC").
			Pluck("id", &expired).Error; err != nil {
			return err
		}
		if len(expired) == 0 {
			return nil
		}
		_, err := expireStale(tx.Where("id IN ?", expired), now)
		return err
	})
	if err != nil {
		r.logger.Errorw("failed to expire license batch", "count", len(ids), "error", err)
		return nil, fmt.Errorf("failed to expire license batch: %w", err)
	}
	return expired, nil
}

// expireStale applies the expiry transition to every still-active row in q
// whose expires_at is before now.
func expireStale(q *gorm.DB, now time.Time) (int64, error) {
	result := q.Model(&models.DownloadLicenseModel{}).
		Scopes(db.ExpiredAt(now)).
		Updates(map[string]any{
			"is_active":     false,
			"revoked_at":    now,
			"revoke_reason": license.ReasonExpired,
			"updated_at":    now,
			"version":       gorm.Expr("version + 1"),
		})
	return result.RowsAffected, result.Error
}
