package bootstrap

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/jonesrussell/north-crm/entity-service/internal/config"
	"github.com/jonesrussell/north-crm/entity-service/internal/database"
	infralogger "github.com/jonesrussell/north-crm/infrastructure/logger"
)

// SetupDatabase connects to PostgreSQL and applies pending migrations unless
// SKIP_MIGRATIONS is set.
func SetupDatabase(ctx context.Context, cfg *config.Config, log infralogger.Logger) (*sqlx.DB, error) {
	db, err := database.Connect(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}

	if cfg.Service.SkipMigrations {
		log.Info("Skipping migrations")
		return db, nil
	}

	if migrateErr := database.Migrate(cfg.Database.URL, cfg.Service.MigrationsPath, log); migrateErr != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", migrateErr)
	}

	return db, nil
}
