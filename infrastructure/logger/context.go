package logger

import (
	"context"
	"fmt"
	"os"
	"sync"
)

type loggerKey struct{}

// WithContext attaches l to ctx. RequestIDLoggerMiddleware stores a logger
// that already carries request_id.
func WithContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// FromContext returns the request logger, or a process-wide warn-level
// stderr logger when ctx has none.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey{}).(Logger); ok && l != nil {
		return l
	}
	return stderrFallback()
}

var stderrFallback = sync.OnceValue(func() Logger {
	l, err := New(Config{Level: "warn", OutputPaths: []string{"stderr"}})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: fallback unavailable, discarding context logs: %v\n", err)
		return NewNop()
	}
	return l
})
