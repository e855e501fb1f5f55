package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/remotehunt/remotehunt/internal/models"
)

// Connect opens the Postgres connection and runs migrations. TranslateError
// is on so unique-constraint violations surface as gorm.ErrDuplicatedKey,
// which the pipeline relies on as its duplicate tie-breaker.
func Connect(dsn string, debug bool) (*gorm.DB, error) {
	level := logger.Warn
	if debug {
		level = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates all tables. Split out so tests can run it
// against an in-memory database.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Company{},
		&models.Job{},
		&models.Category{},
		&models.SourcePost{},
		&models.ImportLog{},
		&models.JobAlert{},
		&models.AlertNotification{},
		&models.SocialQueueEntry{},
	)
	if err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
