// Package bootstrap handles application initialization and lifecycle management
// for the gateway.
package bootstrap

import (
	"fmt"

	infralogger "github.com/jonesrussell/north-crm/infrastructure/logger"
	"github.com/jonesrussell/north-crm/infrastructure/profiling"
)

// Start initializes and runs the gateway until it receives a shutdown signal.
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
	profiler, err := profiling.StartPyroscope(cfg.Service.Name, cfg.Service.Version, log)
	if err != nil {
		log.Warn("Continuous profiling disabled", infralogger.Error(err))
	}
	defer func() { _ = profiler.Stop() }()

	// Phase 3: Downstream clients and HTTP server
	server := SetupHTTPServer(cfg, log)

	log.Info("Starting gateway",
		infralogger.Int("port", cfg.Service.Port),
		infralogger.String("environment", cfg.Service.Environment),
		infralogger.Duration("downstream_timeout", cfg.Downstream.Timeout),
	)

	if runErr := server.Run(); runErr != nil {
		log.Error("Server error", infralogger.Error(runErr))
		return fmt.Errorf("server error: %w", runErr)
	}

	log.Info("Server exited")
	return nil
}
