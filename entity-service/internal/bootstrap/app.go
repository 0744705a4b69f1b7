// Package bootstrap handles application initialization and lifecycle management
// for the entity service.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jonesrussell/north-crm/entity-service/internal/database"
	infralogger "github.com/jonesrussell/north-crm/infrastructure/logger"
	"github.com/jonesrussell/north-crm/infrastructure/profiling"
)

// Start initializes the entity service for the configured resource and runs
// it until it receives a shutdown signal.
func Start() error {
	// Phase 1: Load config and create logger
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := CreateLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	// Phase 2: Profilers (both opt-in through the environment)
	if pprofServer := profiling.StartPprofServer(log); pprofServer != nil {
		defer func() { _ = pprofServer.Close() }()
	}
	profiler, err := profiling.StartPyroscope(cfg.ServiceName(), cfg.Service.Version, log)
	if err != nil {
		log.Warn("Continuous profiling disabled", infralogger.Error(err))
	}
	defer func() { _ = profiler.Stop() }()

	ctx := context.Background()

	// Phase 3: Database and schema
	db, err := SetupDatabase(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if closeErr := database.Close(db); closeErr != nil {
			log.Error("Failed to close database", infralogger.Error(closeErr))
		}
	}()

	// Phase 4: Event publisher (optional)
	events := SetupEventPublisher(ctx, cfg, log)
	defer events.Close()

	// Phase 5: HTTP server
	server, err := SetupHTTPServer(cfg, db, events, log)
	if err != nil {
		return fmt.Errorf("failed to set up server: %w", err)
	}

	log.Info("Starting entity service",
		infralogger.String("resource", cfg.Service.Resource),
		infralogger.Int("port", cfg.Service.Port),
		infralogger.Bool("events_enabled", events.Publisher != nil),
	)

	if runErr := server.Run(); runErr != nil {
		log.Error("Server error", infralogger.Error(runErr))
		return fmt.Errorf("server error: %w", runErr)
	}

	log.Info("Server exited")
	return nil
}
