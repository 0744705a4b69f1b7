// Package events publishes entity change events to a Redis stream.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	infraevents "github.com/jonesrussell/north-crm/infrastructure/events"
	infralogger "github.com/jonesrussell/north-crm/infrastructure/logger"
)

// asyncPublishTimeout is the context timeout for async publish operations.
const asyncPublishTimeout = 5 * time.Second

// Publisher appends entity events to the entity-events stream.
type Publisher struct {
	client *redis.Client
	log    infralogger.Logger
	now    func() time.Time
}

// NewPublisher creates a new event publisher.
// Returns nil if client is nil, and a nil *Publisher is a valid no-op.
func NewPublisher(client *redis.Client, log infralogger.Logger) *Publisher {
	if client == nil {
		return nil
	}
	if log == nil {
		log = infralogger.NewNop()
	}
	return &Publisher{
		client: client,
		log:    log,
		now:    time.Now,
	}
}

// Publish sends an event to the Redis stream.
func (p *Publisher) Publish(ctx context.Context, event infraevents.EntityEvent) error {
	if p == nil || p.client == nil {
		return nil
	}

	if event.EventID == uuid.Nil {
		event.EventID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = p.now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	result := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: infraevents.StreamName,
		Values: map[string]any{
			"event_type": string(event.EventType),
			"resource":   event.Resource,
			"event":      string(payload),
		},
	})

	if publishErr := result.Err(); publishErr != nil {
		return fmt.Errorf("publish to stream: %w", publishErr)
	}

	p.log.Debug("Published entity event",
		infralogger.String("event_type", string(event.EventType)),
		infralogger.String("resource", event.Resource),
		infralogger.String("entity_id", event.EntityID.String()),
		infralogger.String("stream_id", result.Val()),
	)

	return nil
}

// PublishAsync publishes an event in the background.
// Errors are logged but not returned; a failed publish never fails a write.
func (p *Publisher) PublishAsync(event infraevents.EntityEvent) {
	if p == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), asyncPublishTimeout)
		defer cancel()

		if err := p.Publish(ctx, event); err != nil {
			p.log.Error("Async publish failed",
				infralogger.String("event_type", string(event.EventType)),
				infralogger.String("resource", event.Resource),
				infralogger.String("entity_id", event.EntityID.String()),
				infralogger.Error(err),
			)
		}
	}()
}
