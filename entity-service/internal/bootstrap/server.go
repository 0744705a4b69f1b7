package bootstrap

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/jonesrussell/north-crm/entity-service/internal/api"
	"github.com/jonesrussell/north-crm/entity-service/internal/config"
	"github.com/jonesrussell/north-crm/entity-service/internal/handlers"
	"github.com/jonesrussell/north-crm/entity-service/internal/models"
	"github.com/jonesrussell/north-crm/entity-service/internal/repository"
	infragin "github.com/jonesrussell/north-crm/infrastructure/gin"
	"github.com/jonesrussell/north-crm/infrastructure/health"
	infralogger "github.com/jonesrussell/north-crm/infrastructure/logger"
	"github.com/jonesrussell/north-crm/infrastructure/metrics"
)

const metricsNamespace = "entity"

// SetupHTTPServer creates and configures the HTTP server.
func SetupHTTPServer(
	cfg *config.Config,
	db *sqlx.DB,
	ev EventSetup,
	log infralogger.Logger,
) (*infragin.Server, error) {
	schema, err := models.ForResource(cfg.Service.Resource)
	if err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}

	repo, err := repository.NewEntityRepository(db, cfg.Service.Resource)
	if err != nil {
		return nil, fmt.Errorf("repository: %w", err)
	}

	var publisher handlers.EventPublisher
	if ev.Publisher != nil {
		publisher = ev.Publisher
	}

	return api.NewServer(cfg, api.Dependencies{
		Handler:  handlers.NewEntityHandler(schema, repo, publisher, log),
		Database: health.DatabaseProbe(db),
		Redis:    ev.Probe,
		Metrics:  metrics.New(metricsNamespace),
	}, log), nil
}
