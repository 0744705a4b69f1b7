package bootstrap

import (
	"context"

	"github.com/jonesrussell/north-crm/entity-service/internal/config"
	"github.com/jonesrussell/north-crm/entity-service/internal/events"
	"github.com/jonesrussell/north-crm/infrastructure/health"
	infralogger "github.com/jonesrussell/north-crm/infrastructure/logger"
	infraredis "github.com/jonesrussell/north-crm/infrastructure/redis"
	"github.com/redis/go-redis/v9"
)

// EventSetup is the optional event publisher and the probe for its Redis.
// Both are nil when events are disabled.
type EventSetup struct {
	Publisher *events.Publisher
	Probe     health.ProbeFunc
	client    *redis.Client
}

// Close releases the Redis connection, if any.
func (e EventSetup) Close() {
	if e.client != nil {
		_ = e.client.Close()
	}
}

// SetupEventPublisher creates an optional event publisher if Redis is enabled.
// A Redis outage at startup disables events instead of failing the service.
func SetupEventPublisher(ctx context.Context, cfg *config.Config, log infralogger.Logger) EventSetup {
	if !cfg.Redis.Enabled {
		return EventSetup{}
	}

	client, err := infraredis.NewClient(ctx, infraredis.Config{
		Address:  cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn("Redis not available, events disabled",
			infralogger.Error(err),
		)
		return EventSetup{}
	}

	log.Info("Event publisher initialized",
		infralogger.String("redis_address", cfg.Redis.Address),
	)
	return EventSetup{
		Publisher: events.NewPublisher(client, log),
		Probe:     infraredis.Probe(client),
		client:    client,
	}
}
