// Package config loads the gateway configuration.
package config

import (
	"time"

	infraconfig "github.com/jonesrussell/north-crm/infrastructure/config"
	"github.com/jonesrussell/north-crm/infrastructure/resources"
)

const (
	defaultServiceName       = "gateway"
	defaultVersion           = "dev"
	defaultPort              = 3000
	defaultEnvironment       = "development"
	defaultTokenTTL          = 24 * time.Hour
	defaultDownstreamTimeout = 10 * time.Second
	defaultBreakerThreshold  = 5
	defaultBreakerTimeout    = 30 * time.Second
)

// Config holds the gateway configuration.
type Config struct {
	Service    ServiceConfig             `yaml:"service"`
	Auth       AuthConfig                `yaml:"auth"`
	Downstream DownstreamConfig          `yaml:"downstream"`
	Services   ServicesConfig            `yaml:"services"`
	CORS       CORSConfig                `yaml:"cors"`
	Logging    infraconfig.LoggingConfig `yaml:"logging"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name        string `yaml:"name"`
	Version     string `env:"APP_VERSION" yaml:"version"`
	Port        int    `env:"PORT"        yaml:"port"`
	Debug       bool   `env:"APP_DEBUG"   yaml:"debug"`
	Environment string `env:"APP_ENV"     yaml:"environment"`
	// DetailedHealthProtected puts /health/detailed behind the bearer guard.
	DetailedHealthProtected bool `env:"HEALTH_DETAILED_PROTECTED" yaml:"detailed_health_protected"`
}

// AuthConfig holds bearer token configuration.
type AuthConfig struct {
	JWTSecret string `env:"JWT_SECRET" yaml:"jwt_secret"`
	// TokenTTL is the lifetime of tokens minted by cmd/token.
	TokenTTL time.Duration `env:"JWT_TOKEN_TTL" yaml:"token_ttl"`
}

// DownstreamConfig bounds calls to the entity services.
type DownstreamConfig struct {
	Timeout          time.Duration `env:"DOWNSTREAM_TIMEOUT"           yaml:"timeout"`
	BreakerThreshold int           `env:"DOWNSTREAM_BREAKER_THRESHOLD" yaml:"breaker_threshold"`
	BreakerTimeout   time.Duration `env:"DOWNSTREAM_BREAKER_TIMEOUT"   yaml:"breaker_timeout"`
}

// ServicesConfig holds the base URL of every entity service.
type ServicesConfig struct {
	Users    string `env:"USERS_SERVICE_URL"    yaml:"users"`
	Clients  string `env:"CLIENTS_SERVICE_URL"  yaml:"clients"`
	Notes    string `env:"NOTES_SERVICE_URL"    yaml:"notes"`
	Products string `env:"PRODUCTS_SERVICE_URL" yaml:"products"`
	Quotes   string `env:"QUOTES_SERVICE_URL"   yaml:"quotes"`
	Contacts string `env:"CONTACTS_SERVICE_URL" yaml:"contacts"`
}

// CORSConfig overrides the default origin allow-list.
type CORSConfig struct {
	Origins []string `env:"CORS_ORIGINS" yaml:"origins"`
}

// Load loads configuration from the specified path.
func Load(path string) (*Config, error) {
	return infraconfig.LoadWithDefaults[Config](path, setDefaults)
}

func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = defaultTokenTTL
	}
	setDownstreamDefaults(&cfg.Downstream)
	cfg.Services.setDefaults()
	cfg.Logging.SetDefaults()
}

func setServiceDefaults(svc *ServiceConfig) {
	if svc.Name == "" {
		svc.Name = defaultServiceName
	}
	if svc.Version == "" {
		svc.Version = defaultVersion
	}
	if svc.Port == 0 {
		svc.Port = defaultPort
	}
	if svc.Environment == "" {
		svc.Environment = defaultEnvironment
	}
}

func setDownstreamDefaults(d *DownstreamConfig) {
	if d.Timeout == 0 {
		d.Timeout = defaultDownstreamTimeout
	}
	if d.BreakerThreshold == 0 {
		d.BreakerThreshold = defaultBreakerThreshold
	}
	if d.BreakerTimeout == 0 {
		d.BreakerTimeout = defaultBreakerTimeout
	}
}

func (s *ServicesConfig) fields() map[string]*string {
	return map[string]*string{
		resources.Users:    &s.Users,
		resources.Clients:  &s.Clients,
		resources.Notes:    &s.Notes,
		resources.Products: &s.Products,
		resources.Quotes:   &s.Quotes,
		resources.Contacts: &s.Contacts,
	}
}

func (s *ServicesConfig) setDefaults() {
	fields := s.fields()
	for _, r := range resources.All() {
		if p := fields[r.Name]; *p == "" {
			*p = r.DefaultURL()
		}
	}
}

// URL returns the base URL configured for resource.
func (s *ServicesConfig) URL(resource string) string {
	if p, ok := s.fields()[resource]; ok {
		return *p
	}
	return ""
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := infraconfig.ValidatePort("service.port", c.Service.Port); err != nil {
		return err
	}
	if err := infraconfig.ValidateRequired("auth.jwt_secret", c.Auth.JWTSecret); err != nil {
		return err
	}
	if c.Downstream.Timeout <= 0 {
		return &infraconfig.ValidationError{Field: "downstream.timeout", Message: "must be positive"}
	}
	for _, r := range resources.All() {
		if err := infraconfig.ValidateURL("services."+r.Name, c.Services.URL(r.Name)); err != nil {
			return err
		}
	}
	return c.Logging.Validate()
}
