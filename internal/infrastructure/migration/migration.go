// Package migration keeps the database schema current.
package migration

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/hrshiti/inplay-sub000/internal/infrastructure/persistence/models"
	"github.com/hrshiti/inplay-sub000/internal/shared/config"
	"github.com/hrshiti/inplay-sub000/internal/shared/logger"
)

// Models lists every table owned by this service.
func Models() []interface{} {
	return []interface{}{
		&models.DownloadLicenseModel{},
		&models.LicenseDeviceSlotModel{},
		&models.ContentModel{},
		&models.UserModel{},
		&models.PurchaseModel{},
		&models.WatchHistoryModel{},
	}
}

// Manager runs the strategy chosen for the configured database.
type Manager struct {
	strategy Strategy
	logger   logger.Interface
}

// NewManager picks goose for mysql unless auto-migrate is requested.
func NewManager(cfg config.DatabaseConfig, log logger.Interface) *Manager {
	var strategy Strategy
	if cfg.Driver == config.DriverSQLite || cfg.AutoMigrate {
		strategy = NewAutoMigrateStrategy(log)
	} else {
		strategy = NewGooseStrategy(log)
	}
	return NewManagerWithStrategy(strategy, log)
}

func NewManagerWithStrategy(strategy Strategy, log logger.Interface) *Manager {
	return &Manager{
		strategy: strategy,
		logger:   log.With("component", "migration.manager"),
	}
}

func (m *Manager) Migrate(db *gorm.DB) error {
	m.logger.Infow("starting database migration", "strategy", m.strategy.GetName())

	if err := m.strategy.Migrate(db); err != nil {
		m.logger.Errorw("migration failed", "strategy", m.strategy.GetName(), "error", err)
		return fmt.Errorf("migration failed with strategy %s: %w", m.strategy.GetName(), err)
	}
	return nil
}

func (m *Manager) Strategy() Strategy {
	return m.strategy
}
