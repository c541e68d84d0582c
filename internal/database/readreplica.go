package database

import (
	"fmt"
	"time"

	"campusmarket/internal/config"
	"campusmarket/internal/middleware"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var readDB *gorm.DB

// ConnectReadReplica opens a read-only connection when DB_READ_HOST is set.
// Read traffic falls back to the primary when no replica is configured.
func ConnectReadReplica(cfg *config.Config) error {
	if cfg.DBReadHost == "" {
		return nil
	}

	sslMode := cfg.DBSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBReadHost,
		cfg.DBPort,
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBName,
		sslMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: &CustomGormLogger{
			logger: middleware.Logger,
			Config: logger.Config{
				SlowThreshold:             200 * time.Millisecond,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to connect to read replica: %w", err)
	}

	if err := configurePool(db, cfg); err != nil {
		middleware.Logger.Warn("Failed to configure read replica pool")
	}

	readDB = db
	middleware.Logger.Info("Read replica connected")
	return nil
}

// GetReadDB returns the read replica connection, or nil if none is configured.
func GetReadDB() *gorm.DB {
	return readDB
}

// SetReadDB replaces the read replica connection. Intended for tests.
func SetReadDB(db *gorm.DB) {
	readDB = db
}
