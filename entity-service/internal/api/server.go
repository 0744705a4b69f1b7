// Package api assembles the entity-service HTTP server.
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/north-crm/entity-service/internal/config"
	"github.com/jonesrussell/north-crm/entity-service/internal/handlers"
	infragin "github.com/jonesrussell/north-crm/infrastructure/gin"
	"github.com/jonesrussell/north-crm/infrastructure/health"
	infralogger "github.com/jonesrussell/north-crm/infrastructure/logger"
	"github.com/jonesrussell/north-crm/infrastructure/metrics"
)

const (
	defaultIdleTimeout = 120 * time.Second
	probeTimeout       = 5 * time.Second
)

// Dependencies are the collaborators the server routes and probes.
type Dependencies struct {
	Handler *handlers.EntityHandler
	// Database is required; Redis is nil when events are disabled.
	Database health.ProbeFunc
	Redis    health.ProbeFunc
	Metrics  *metrics.Metrics
}

// NewServer creates the entity-service server. The CRUD routes are
// unauthenticated; the service is only reachable through the gateway.
func NewServer(cfg *config.Config, deps Dependencies, log infralogger.Logger) *infragin.Server {
	builder := infragin.NewServerBuilder(cfg.ServiceName(), cfg.Service.Port).
		WithLogger(log).
		WithDebug(cfg.Service.Debug).
		WithVersion(cfg.Service.Version).
		WithCORSOrigins(cfg.CORS.Origins).
		WithCredentials(true).
		WithTimeouts(cfg.Service.ReadTimeout, cfg.Service.WriteTimeout, defaultIdleTimeout).
		WithMetrics(deps.Metrics).
		WithHealthTimeout(probeTimeout).
		WithEnvironment(health.Environment{
			Name:                cfg.Service.Environment,
			JWTSecretConfigured: cfg.Auth.JWTSecret != "",
			DatabaseConfigured:  cfg.Database.URL != "",
		}).
		WithHealth("database", deps.Database)

	if deps.Redis != nil {
		builder.WithHealth("redis", deps.Redis)
	}

	return builder.
		WithRoutes(func(router *gin.Engine) {
			deps.Handler.Register(router)
		}).
		Build()
}
