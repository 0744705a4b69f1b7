package gin

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	infraerrors "github.com/jonesrussell/north-crm/infrastructure/errors"
	"github.com/jonesrussell/north-crm/infrastructure/health"
	"github.com/jonesrussell/north-crm/infrastructure/jwt"
	"github.com/jonesrussell/north-crm/infrastructure/logger"
	"github.com/jonesrussell/north-crm/infrastructure/metrics"
)

// ServerBuilder provides a fluent API for building HTTP servers.
type ServerBuilder struct {
	config      *Config
	logger      logger.Logger
	metrics     *metrics.Metrics
	setupRoutes func(*gin.Engine)

	startTime     time.Time
	probeTimeout  time.Duration
	probes        []health.Probe
	environment   health.Environment
	detailedGuard gin.HandlerFunc
}

// NewServerBuilder creates a new server builder with the given configuration.
func NewServerBuilder(serviceName string, port int) *ServerBuilder {
	return &ServerBuilder{
		config:    NewConfig(serviceName, port),
		startTime: time.Now(),
	}
}

// WithConfig sets a custom configuration.
func (b *ServerBuilder) WithConfig(cfg *Config) *ServerBuilder {
	b.config = cfg
	return b
}

// WithLogger sets the logger.
func (b *ServerBuilder) WithLogger(log logger.Logger) *ServerBuilder {
	b.logger = log
	return b
}

// WithDebug enables or disables debug mode.
func (b *ServerBuilder) WithDebug(debug bool) *ServerBuilder {
	b.config.Debug = debug
	return b
}

// WithVersion sets the service version.
func (b *ServerBuilder) WithVersion(version string) *ServerBuilder {
	b.config.ServiceVersion = version
	return b
}

// WithCORSOrigins replaces the default CORS allow-list. Empty keeps the defaults.
func (b *ServerBuilder) WithCORSOrigins(origins []string) *ServerBuilder {
	if len(origins) > 0 {
		b.config.CORS.AllowedOrigins = origins
	}
	return b
}

// WithCredentials toggles Access-Control-Allow-Credentials.
func (b *ServerBuilder) WithCredentials(allow bool) *ServerBuilder {
	b.config.CORS.AllowCredentials = allow
	return b
}

// WithTimeouts sets all timeout values for the HTTP server.
func (b *ServerBuilder) WithTimeouts(read, write, idle time.Duration) *ServerBuilder {
	b.config.ReadTimeout = read
	b.config.WriteTimeout = write
	b.config.IdleTimeout = idle
	return b
}

// WithHealth adds a named dependency probe to /health/detailed.
func (b *ServerBuilder) WithHealth(name string, probe health.ProbeFunc) *ServerBuilder {
	b.probes = append(b.probes, health.Probe{Name: name, Check: probe})
	return b
}

// WithHealthTimeout bounds each dependency probe.
func (b *ServerBuilder) WithHealthTimeout(timeout time.Duration) *ServerBuilder {
	b.probeTimeout = timeout
	return b
}

// WithEnvironment sets the environment block of /health/detailed.
func (b *ServerBuilder) WithEnvironment(env health.Environment) *ServerBuilder {
	b.environment = env
	return b
}

// WithProtectedDetailedHealth puts /health/detailed behind guard.
func (b *ServerBuilder) WithProtectedDetailedHealth(guard gin.HandlerFunc) *ServerBuilder {
	b.detailedGuard = guard
	return b
}

// WithMetrics records request metrics and serves GET /metrics.
func (b *ServerBuilder) WithMetrics(m *metrics.Metrics) *ServerBuilder {
	b.metrics = m
	return b
}

// WithRoutes sets the route setup function.
func (b *ServerBuilder) WithRoutes(setupRoutes func(*gin.Engine)) *ServerBuilder {
	b.setupRoutes = setupRoutes
	return b
}

// Build creates the server with all configured options.
func (b *ServerBuilder) Build() *Server {
	if b.logger == nil {
		b.logger = logger.Must(logger.Config{
			Level:       "info",
			Development: b.config.Debug,
		})
	}
	b.config.SetDefaults()

	agg := health.NewAggregator(health.Options{
		Service:     b.config.ServiceName,
		Version:     b.config.ServiceVersion,
		StartTime:   b.startTime,
		Timeout:     b.probeTimeout,
		Environment: b.environment,
		Probes:      b.probes,
	})

	wrappedSetup := func(router *gin.Engine) {
		var guards []gin.HandlerFunc
		if b.detailedGuard != nil {
			guards = append(guards, b.detailedGuard)
		}
		RegisterHealthRoutes(router, agg, guards...)

		if b.metrics != nil {
			router.GET("/metrics", gin.WrapH(b.metrics.Handler()))
		}

		if b.setupRoutes != nil {
			b.setupRoutes(router)
		}

		router.NoRoute(func(c *gin.Context) {
			c.JSON(http.StatusNotFound, infraerrors.NewResponse(http.StatusNotFound,
				"Cannot "+c.Request.Method+" "+c.Request.URL.Path))
		})
	}

	return NewServer(b.config, b.logger, b.metrics, wrappedSetup)
}

// ProtectedGroup creates a router group guarded by bearer-token auth.
// An empty secret leaves the group open.
func ProtectedGroup(router gin.IRouter, path, jwtSecret string) *gin.RouterGroup {
	group := router.Group(path)
	if jwtSecret != "" {
		group.Use(jwt.Middleware(jwtSecret))
	}
	return group
}
