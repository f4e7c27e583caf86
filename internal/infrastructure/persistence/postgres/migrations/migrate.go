package migrations

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/planwise/backend/internal/domain/calendar"
	"github.com/planwise/backend/internal/domain/notification"
	"github.com/planwise/backend/internal/domain/project"
	"github.com/planwise/backend/internal/domain/user"
	"github.com/planwise/backend/internal/infrastructure/persistence/postgres/connection"
)

// MigrationRecord tracks the migration history
type MigrationRecord struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"not null;unique"`
	Version   int       `gorm:"not null"`
	AppliedAt time.Time `gorm:"not null"`
}

// TableName specifies the table name for migration records
func (MigrationRecord) TableName() string {
	return "schema_migrations"
}

const schemaVersion = 1

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *connection.Database, logger *zap.Logger) error {
	logger.Info("Starting automatic database migration...")

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		logger.Warn("Could not enable uuid-ossp extension", zap.Error(err))
	}

	models := []interface{}{
		&MigrationRecord{},
		&user.User{},
		&project.Project{},
		&project.ProjectMember{},
		&notification.Notification{},
		&calendar.CalendarEvent{},
		&calendar.EventReminder{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		logger.Error("Database migration failed", zap.Error(err))
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := recordMigration(db.DB, "auto_migrate"); err != nil {
		return err
	}

	logger.Info("Database migration completed")
	return nil
}

func recordMigration(db *gorm.DB, name string) error {
	record := MigrationRecord{
		Name:      fmt.Sprintf("%s_v%d_%s", name, schemaVersion, time.Now().UTC().Format("20060102150405")),
		Version:   schemaVersion,
		AppliedAt: time.Now().UTC(),
	}
	return db.Create(&record).Error
}
