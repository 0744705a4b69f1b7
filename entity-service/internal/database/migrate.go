package database

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // postgres:// migrate driver
	_ "github.com/golang-migrate/migrate/v4/source/file"       // file:// source driver
	infralogger "github.com/jonesrussell/north-crm/infrastructure/logger"
)

// Migrator applies the SQL files in a migrations directory. It opens its own
// connection so closing it never touches the service pool.
type Migrator struct {
	m    *migrate.Migrate
	path string
	log  infralogger.Logger
}

// NewMigrator creates a migrator for databaseURL reading from migrationsPath.
func NewMigrator(databaseURL, migrationsPath string, log infralogger.Logger) (*Migrator, error) {
	path := migrationsPath
	if abs, err := filepath.Abs(migrationsPath); err == nil {
		path = abs
	}

	m, err := migrate.New("file://"+path, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}

	return &Migrator{m: m, path: path, log: log}, nil
}

// Up applies every pending migration.
func (mg *Migrator) Up() error {
	if err := mg.m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			mg.log.Info("No pending migrations", infralogger.String("migrations_path", mg.path))
			return nil
		}
		return fmt.Errorf("run migrations: %w", err)
	}

	mg.log.Info("Migrations applied successfully", infralogger.String("migrations_path", mg.path))
	return nil
}

// Down rolls back steps migrations (at least one).
func (mg *Migrator) Down(steps int) error {
	if steps <= 0 {
		steps = 1
	}

	if err := mg.m.Steps(-steps); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			mg.log.Info("No migrations to roll back", infralogger.String("migrations_path", mg.path))
			return nil
		}
		return fmt.Errorf("roll back migrations: %w", err)
	}

	mg.log.Info("Migrations rolled back",
		infralogger.String("migrations_path", mg.path),
		infralogger.Int("steps", steps),
	)
	return nil
}

// Version reports the applied version; ok is false before the first migration.
func (mg *Migrator) Version() (version uint, dirty, ok bool, err error) {
	version, dirty, err = mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, false, nil
	}
	if err != nil {
		return 0, false, false, fmt.Errorf("get migration version: %w", err)
	}
	return version, dirty, true, nil
}

// Close releases the migrator's connection and source.
func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}

// Migrate applies pending migrations and closes the migrator.
func Migrate(databaseURL, migrationsPath string, log infralogger.Logger) error {
	mg, err := NewMigrator(databaseURL, migrationsPath, log)
	if err != nil {
		return err
	}
	defer func() { _ = mg.Close() }()

	return mg.Up()
}
