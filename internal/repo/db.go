// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file opens the SQLite database (pure Go driver) and
// migrates the triage schema.
package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/iris-triage/internal/domain"
)

// SQLiteOptions tunes the connection. Zero values take the defaults.
type SQLiteOptions struct {
	BusyTimeout  time.Duration // how long a writer waits for the lock; default 5s
	MaxOpenConns int           // default 10
}

func (o SQLiteOptions) withDefaults() SQLiteOptions {
	if o.BusyTimeout <= 0 {
		o.BusyTimeout = 5 * time.Second
	}
	if o.MaxOpenConns <= 0 {
		o.MaxOpenConns = 10
	}
	return o
}

// OpenSQLite opens (or creates) the database at path in WAL mode and installs
// the OpenTelemetry plugin so queries show up as child spans of the request
// that issued them.
func OpenSQLite(path string, opts SQLiteOptions) (*gorm.DB, error) {
	opts = opts.withDefaults()

	// A missing parent directory otherwise surfaces as sqlite "out of memory (14)".
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		fmt.Sprintf("PRAGMA busy_timeout=%d", opts.BusyTimeout.Milliseconds()),
	}
	for _, p := range pragmas {
		if err := db.Exec(p).Error; err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	sqlDB.SetMaxIdleConns(opts.MaxOpenConns)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

// AutoMigrate creates or updates the tables for every persisted model.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.UserProfile{},
		&domain.ConversationContext{},
		&domain.ConversationMessage{},
		&domain.Idempotency{},
	)
}
