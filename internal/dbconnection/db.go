package dbconnection

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/amirhossein5/faceattend/internal/logging"
	"github.com/amirhossein5/faceattend/internal/models"
)

// Open opens a database through dialector and migrates the attendance schema.
func Open(dialector gorm.Dialector, config *gorm.Config, log *slog.Logger) (*gorm.DB, error) {
	log = logging.OrDefault(log)
	log.Debug("initializing database connection...")

	if config == nil {
		config = &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	}

	db, err := gorm.Open(dialector, config)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(&models.Person{}); err != nil {
		return nil, fmt.Errorf("migrate people table: %w", err)
	}
	if err := db.AutoMigrate(&models.EnrolledFace{}); err != nil {
		return nil, fmt.Errorf("migrate enrolled_faces table: %w", err)
	}
	if err := db.AutoMigrate(&models.AttendanceLog{}); err != nil {
		return nil, fmt.Errorf("migrate attendance_logs table: %w", err)
	}

	return db, nil
}

// OpenSQLite opens (creating if needed) the sqlite database at path.
func OpenSQLite(path string, log *slog.Logger) (*gorm.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	return Open(sqlite.Open(path), nil, log)
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
