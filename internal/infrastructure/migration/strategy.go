package migration

import (
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"

	"github.com/hrshiti/inplay-sub000/internal/shared/logger"
)

//go:embed scripts/*.sql
var scriptsFS embed.FS

const scriptsDir = "scripts"

// Strategy applies a schema to a database.
type Strategy interface {
	Migrate(db *gorm.DB) error
	GetName() string
}

// GooseStrategy applies the versioned SQL scripts embedded in the binary.
// The scripts target MySQL.
type GooseStrategy struct {
	logger logger.Interface
}

func NewGooseStrategy(log logger.Interface) *GooseStrategy {
	return &GooseStrategy{logger: log.With("component", "migration.goose")}
}

func (s *GooseStrategy) prepare() error {
	goose.SetBaseFS(scriptsFS)
	if err := goose.SetDialect("mysql"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return nil
}

func (s *GooseStrategy) Migrate(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if err := s.prepare(); err != nil {
		return err
	}

	currentVersion, err := goose.GetDBVersion(sqlDB)
	if err != nil {
		s.logger.Errorw("failed to get current version", "error", err)
		return fmt.Errorf("failed to get current version: %w", err)
	}

	if err := goose.Up(sqlDB, scriptsDir); err != nil {
		s.logger.Errorw("migration failed", "error", err)
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	finalVersion, err := goose.GetDBVersion(sqlDB)
	if err != nil {
		return fmt.Errorf("failed to get final version: %w", err)
	}

	s.logger.Infow("migration completed successfully",
		"from_version", currentVersion,
		"to_version", finalVersion)
	return nil
}

func (s *GooseStrategy) GetName() string {
	return "goose"
}

// MigrateDown rolls back the given number of versions.
func (s *GooseStrategy) MigrateDown(db *gorm.DB, steps int) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if err := s.prepare(); err != nil {
		return err
	}

	for i := 0; i < steps; i++ {
		if err := goose.Down(sqlDB, scriptsDir); err != nil {
			s.logger.Errorw("down migration failed", "step", i+1, "error", err)
			return fmt.Errorf("failed to roll back step %d: %w", i+1, err)
		}
	}

	s.logger.Infow("down migration completed", "steps", steps)
	return nil
}

// Status prints the applied state of every script.
func (s *GooseStrategy) Status(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if err := s.prepare(); err != nil {
		return err
	}
	return goose.Status(sqlDB, scriptsDir)
}

// AutoMigrateStrategy lets gorm derive the schema from the persistence models.
// It is used for sqlite and local development.
type AutoMigrateStrategy struct {
	logger logger.Interface
}

func NewAutoMigrateStrategy(log logger.Interface) *AutoMigrateStrategy {
	return &AutoMigrateStrategy{logger: log.With("component", "migration.automigrate")}
}

func (s *AutoMigrateStrategy) Migrate(db *gorm.DB) error {
	models := Models()
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	s.logger.Infow("auto migration completed", "models_count", len(models))
	return nil
}

func (s *AutoMigrateStrategy) GetName() string {
	return "automigrate"
}
