package bootstrap

import (
	"github.com/jonesrussell/north-crm/gateway/internal/api"
	"github.com/jonesrussell/north-crm/gateway/internal/config"
	infragin "github.com/jonesrussell/north-crm/infrastructure/gin"
	infralogger "github.com/jonesrussell/north-crm/infrastructure/logger"
	"github.com/jonesrussell/north-crm/infrastructure/metrics"
)

const metricsNamespace = "gateway"

// SetupHTTPServer wires one client per entity service into the gateway server.
func SetupHTTPServer(cfg *config.Config, log infralogger.Logger) *infragin.Server {
	m := metrics.New(metricsNamespace)
	downstreams := api.NewDownstreams(cfg, m, log)

	for _, d := range downstreams {
		log.Debug("Downstream configured",
			infralogger.String("resource", d.Resource),
			infralogger.String("url", d.BaseURL),
		)
	}

	return api.NewServer(cfg, downstreams, m, log)
}
