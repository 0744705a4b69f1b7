package api

import (
	"github.com/jonesrussell/north-crm/gateway/internal/client"
	"github.com/jonesrussell/north-crm/gateway/internal/config"
	"github.com/jonesrussell/north-crm/gateway/internal/handlers"
	"github.com/jonesrussell/north-crm/infrastructure/circuitbreaker"
	infralogger "github.com/jonesrussell/north-crm/infrastructure/logger"
	"github.com/jonesrussell/north-crm/infrastructure/metrics"
	"github.com/jonesrussell/north-crm/infrastructure/resources"
)

// Downstream is one entity service as seen by the gateway.
type Downstream struct {
	Resource string
	BaseURL  string
	Client   handlers.ServiceClient
}

// NewDownstreams builds one client per resource from the configured URLs.
func NewDownstreams(cfg *config.Config, m *metrics.Metrics, log infralogger.Logger) []Downstream {
	all := resources.All()
	downstreams := make([]Downstream, 0, len(all))

	for _, r := range all {
		baseURL := cfg.Services.URL(r.Name)
		downstreams = append(downstreams, Downstream{
			Resource: r.Name,
			BaseURL:  baseURL,
			Client: client.New(client.Options{
				Resource: r.Name,
				BaseURL:  baseURL,
				Timeout:  cfg.Downstream.Timeout,
				Breaker: circuitbreaker.Config{
					FailureThreshold: cfg.Downstream.BreakerThreshold,
					Timeout:          cfg.Downstream.BreakerTimeout,
				},
				Metrics: m,
				Logger:  log,
			}),
		})
	}

	return downstreams
}
