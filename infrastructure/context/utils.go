// Package context holds the request-scoped values and timeouts shared by the CRM services.
package context

import (
	"context"
	"time"
)

// DefaultProbeTimeout bounds a single health dependency probe.
const DefaultProbeTimeout = 5 * time.Second

// WithProbeTimeout derives a probe context from parent. A non-positive
// timeout uses DefaultProbeTimeout.
func WithProbeTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return context.WithTimeout(parent, timeout)
}

type requestIDKey struct{}

// WithRequestID stores the correlation id for outbound calls.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id stored by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
