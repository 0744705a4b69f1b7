// Package events defines the entity change events the entity services append
// to a Redis stream after every successful write.
package events

import (
	"time"

	"github.com/google/uuid"
)

// StreamName is the Redis stream for entity events.
const StreamName = "entity-events"

// EventType represents the type of entity event.
type EventType string

const (
	// EntityCreated indicates a new entity was stored.
	EntityCreated EventType = "ENTITY_CREATED"
	// EntityUpdated indicates an existing entity was modified.
	EntityUpdated EventType = "ENTITY_UPDATED"
	// EntityDeleted indicates an entity was removed.
	EntityDeleted EventType = "ENTITY_DELETED"
)

// EntityEvent is the envelope for all entity events.
type EntityEvent struct {
	EventID   uuid.UUID `json:"event_id"`
	EventType EventType `json:"event_type"`
	Resource  string    `json:"resource"`
	EntityID  uuid.UUID `json:"entity_id"`
	Timestamp time.Time `json:"timestamp"`
	// RequestID correlates the event with the HTTP request that caused it.
	RequestID string `json:"request_id,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// UpdatedPayload lists the fields an update touched.
type UpdatedPayload struct {
	ChangedFields []string `json:"changed_fields"`
}
