// Package api assembles the gateway HTTP server.
package api

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/north-crm/gateway/internal/config"
	"github.com/jonesrussell/north-crm/gateway/internal/handlers"
	infragin "github.com/jonesrussell/north-crm/infrastructure/gin"
	"github.com/jonesrussell/north-crm/infrastructure/health"
	infrahttp "github.com/jonesrussell/north-crm/infrastructure/http"
	"github.com/jonesrussell/north-crm/infrastructure/jwt"
	infralogger "github.com/jonesrussell/north-crm/infrastructure/logger"
	"github.com/jonesrussell/north-crm/infrastructure/metrics"
)

const (
	defaultReadTimeout  = 30 * time.Second
	defaultWriteTimeout = 60 * time.Second
	defaultIdleTimeout  = 120 * time.Second
	probeTimeout        = 5 * time.Second
)

// NewServer creates the gateway server. Every downstream is probed by
// /health/detailed and served under /{resource} behind the bearer guard.
func NewServer(
	cfg *config.Config,
	downstreams []Downstream,
	m *metrics.Metrics,
	log infralogger.Logger,
) *infragin.Server {
	builder := infragin.NewServerBuilder(cfg.Service.Name, cfg.Service.Port).
		WithLogger(log).
		WithDebug(cfg.Service.Debug).
		WithVersion(cfg.Service.Version).
		WithCORSOrigins(cfg.CORS.Origins).
		WithCredentials(true).
		WithTimeouts(defaultReadTimeout, defaultWriteTimeout, defaultIdleTimeout).
		WithMetrics(m).
		WithHealthTimeout(probeTimeout).
		WithEnvironment(health.Environment{
			Name:                cfg.Service.Environment,
			JWTSecretConfigured: cfg.Auth.JWTSecret != "",
		})

	probeClient := infrahttp.NewClient(&infrahttp.ClientConfig{Timeout: probeTimeout})
	resourceHandlers := make([]*handlers.ResourceHandler, 0, len(downstreams))
	for _, d := range downstreams {
		builder.WithHealth(d.Resource, health.HTTPProbe(probeClient, strings.TrimRight(d.BaseURL, "/")+"/health"))
		resourceHandlers = append(resourceHandlers, handlers.NewResourceHandler(d.Resource, d.Client, log))
	}

	if cfg.Service.DetailedHealthProtected {
		builder.WithProtectedDetailedHealth(jwt.Middleware(cfg.Auth.JWTSecret))
	}

	return builder.
		WithRoutes(func(router *gin.Engine) {
			SetupRoutes(router, cfg.Auth.JWTSecret, resourceHandlers)
		}).
		Build()
}

// SetupRoutes mounts every resource handler behind the bearer guard.
// Health and metrics routes are registered by the infrastructure gin builder.
func SetupRoutes(router *gin.Engine, jwtSecret string, resourceHandlers []*handlers.ResourceHandler) {
	protected := infragin.ProtectedGroup(router, "", jwtSecret)
	for _, h := range resourceHandlers {
		h.Register(protected)
	}
}
