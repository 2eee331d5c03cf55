package db

import (
	"context"
	"fmt"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/doodlesbykumbi/devicehub/pkg/logging"
	"github.com/doodlesbykumbi/devicehub/pkg/secrets"
)

// Config holds database connection configuration
type Config struct {
	// URL is the database connection URL (defaults to DATABASE_URL env var)
	URL string
	// Cipher is optional - if provided, it will be added to the context
	Cipher secrets.Cipher
}

// Connect establishes a database connection.
// If no URL is provided, it reads from DATABASE_URL environment variable.
func Connect(cfg Config) (*gorm.DB, error) {
	dbURL := cfg.URL
	if dbURL == "" {
		dbURL = URL()
	}
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	return Open(postgres.New(postgres.Config{
		DSN:                  dbURL,
		PreferSimpleProtocol: true, // disables implicit prepared statement usage
	}), cfg.Cipher)
}

// Open wraps an already configured dialector, which lets tests hand in a
// sqlmock or sqlite connection.
func Open(dialector gorm.Dialector, cipher secrets.Cipher) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logMode()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cipher != nil {
		db = db.WithContext(secrets.WithCipher(context.Background(), cipher))
	}
	return db, nil
}

// SQL logging follows DEVICEHUB_LOG_LEVEL: statements are logged at debug only.
func logMode() logger.LogLevel {
	if logging.IsDebug() {
		return logger.Info
	}
	return logger.Silent
}

// URL returns the database URL from environment.
// Returns empty string if DATABASE_URL is not set.
func URL() string {
	return os.Getenv("DATABASE_URL")
}

// AuditURL returns the optional audit database URL.
func AuditURL() string {
	return os.Getenv("AUDIT_DATABASE_URL")
}
