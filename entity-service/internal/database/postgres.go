// Package database opens the PostgreSQL pool and applies schema migrations.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	infraconfig "github.com/jonesrussell/north-crm/infrastructure/config"
	infralogger "github.com/jonesrussell/north-crm/infrastructure/logger"
	"github.com/jonesrussell/north-crm/infrastructure/retry"
	_ "github.com/lib/pq" // PostgreSQL driver
)

const (
	driverName          = "postgres"
	connectInitialDelay = 500 * time.Millisecond
	connectMaxDelay     = 10 * time.Second
)

// Connect opens a pooled connection and pings it, retrying while the
// database is still starting.
func Connect(ctx context.Context, cfg infraconfig.DatabaseConfig, log infralogger.Logger) (*sqlx.DB, error) {
	var db *sqlx.DB

	err := retry.Do(ctx, retry.Config{
		MaxAttempts:  cfg.ConnectAttempts,
		InitialDelay: connectInitialDelay,
		MaxDelay:     connectMaxDelay,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			log.Warn("Database not ready, retrying",
				infralogger.Int("attempt", attempt),
				infralogger.Duration("delay", delay),
				infralogger.Error(err),
			)
		},
	}, func(ctx context.Context) error {
		conn, connErr := sqlx.ConnectContext(ctx, driverName, cfg.URL)
		if connErr != nil {
			return connErr
		}
		db = conn
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	Configure(db, cfg)

	log.Info("Database connection established",
		infralogger.Int("max_open_conns", cfg.MaxOpenConns),
		infralogger.Int("max_idle_conns", cfg.MaxIdleConns),
	)

	return db, nil
}

// Configure applies the pool limits from cfg.
func Configure(db *sqlx.DB, cfg infraconfig.DatabaseConfig) {
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
}

// Close closes the database connection
func Close(db *sqlx.DB) error {
	if db != nil {
		return db.Close()
	}
	return nil
}
