// Package config loads the entity-service configuration.
package config

import (
	"fmt"
	"time"

	infraconfig "github.com/jonesrussell/north-crm/infrastructure/config"
	"github.com/jonesrussell/north-crm/infrastructure/resources"
)

const (
	defaultVersion        = "dev"
	defaultEnvironment    = "development"
	defaultReadTimeout    = 30 * time.Second
	defaultWriteTimeout   = 30 * time.Second
	defaultMigrationsPath = "migrations"
)

// Config holds the entity-service configuration.
type Config struct {
	Service  ServiceConfig              `yaml:"service"`
	Auth     AuthConfig                 `yaml:"auth"`
	Database infraconfig.DatabaseConfig `yaml:"database"`
	Redis    infraconfig.RedisConfig    `yaml:"redis"`
	CORS     CORSConfig                 `yaml:"cors"`
	Logging  infraconfig.LoggingConfig  `yaml:"logging"`
}

// ServiceConfig holds service-level configuration. Resource selects which
// entity this process serves; the port defaults from the resource catalog.
type ServiceConfig struct {
	Resource       string        `env:"RESOURCE"        yaml:"resource"`
	Version        string        `env:"APP_VERSION"     yaml:"version"`
	Port           int           `env:"PORT"            yaml:"port"`
	Debug          bool          `env:"APP_DEBUG"       yaml:"debug"`
	Environment    string        `env:"APP_ENV"         yaml:"environment"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	MigrationsPath string        `env:"MIGRATIONS_PATH" yaml:"migrations_path"`
	SkipMigrations bool          `env:"SKIP_MIGRATIONS" yaml:"skip_migrations"`
}

// AuthConfig only records whether a secret is present; entity services sit
// on the internal network behind the gateway.
type AuthConfig struct {
	JWTSecret string `env:"JWT_SECRET" yaml:"jwt_secret"` //nolint:gosec // presence only
}

// CORSConfig overrides the default origin allow-list.
type CORSConfig struct {
	Origins []string `env:"CORS_ORIGINS" yaml:"origins"`
}

// Load loads configuration from the specified path.
func Load(path string) (*Config, error) {
	cfg, err := infraconfig.LoadWithDefaults[Config](path, setDefaults)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func setDefaults(cfg *Config) {
	svc := &cfg.Service
	if svc.Version == "" {
		svc.Version = defaultVersion
	}
	if svc.Environment == "" {
		svc.Environment = defaultEnvironment
	}
	if svc.Port == 0 {
		if r, ok := resources.Lookup(svc.Resource); ok {
			svc.Port = r.Port
		}
	}
	if svc.ReadTimeout == 0 {
		svc.ReadTimeout = defaultReadTimeout
	}
	if svc.WriteTimeout == 0 {
		svc.WriteTimeout = defaultWriteTimeout
	}
	if svc.MigrationsPath == "" {
		svc.MigrationsPath = defaultMigrationsPath
	}

	cfg.Database.SetDefaults()
	cfg.Redis.SetDefaults()
	cfg.Logging.SetDefaults()
}

// ServiceName is the name reported in logs and health records, e.g. "users-service".
func (c *Config) ServiceName() string {
	return c.Service.Resource + "-service"
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := infraconfig.ValidateRequired("service.resource", c.Service.Resource); err != nil {
		return err
	}
	if _, ok := resources.Lookup(c.Service.Resource); !ok {
		return &infraconfig.ValidationError{
			Field:   "service.resource",
			Message: fmt.Sprintf("unknown resource %q, expected one of %v", c.Service.Resource, resources.Names()),
		}
	}
	if err := infraconfig.ValidatePort("service.port", c.Service.Port); err != nil {
		return err
	}
	if err := infraconfig.ValidateRequired("database.url", c.Database.URL); err != nil {
		return err
	}
	if c.Redis.Enabled {
		if err := infraconfig.ValidateRequired("redis.address", c.Redis.Address); err != nil {
			return err
		}
	}
	return c.Logging.Validate()
}
