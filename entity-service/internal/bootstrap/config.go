package bootstrap

import (
	"flag"
	"fmt"

	"github.com/jonesrussell/north-crm/entity-service/internal/config"
	infraconfig "github.com/jonesrussell/north-crm/infrastructure/config"
	infralogger "github.com/jonesrussell/north-crm/infrastructure/logger"
)

// LoadConfig loads configuration. Uses -config flag with infraconfig default.
func LoadConfig() (*config.Config, error) {
	configPath := flag.String("config", infraconfig.GetConfigPath("config.yml"), "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}
	if validationErr := cfg.Validate(); validationErr != nil {
		return nil, fmt.Errorf("validate config: %w", validationErr)
	}
	return cfg, nil
}

// CreateLogger creates a logger tagged with the service name and resource.
func CreateLogger(cfg *config.Config) (infralogger.Logger, error) {
	log, err := infralogger.New(infralogger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Service.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log.With(
		infralogger.String("service", cfg.ServiceName()),
		infralogger.String("version", cfg.Service.Version),
		infralogger.String("resource", cfg.Service.Resource),
	), nil
}
