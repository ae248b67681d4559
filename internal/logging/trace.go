// Package logging provides request ID tracing for the HTTP service.
package logging

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// NewRequestID generates a unique request ID.
func NewRequestID() string {
	return uuid.NewString()
}

// WithRequestID adds a request ID to context.
// If id is empty, generates a new one.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = NewRequestID()
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// GetRequestID extracts request ID from context.
// Returns empty string if not present.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// FromContext returns a logger for component tagged with ctx's request ID.
func FromContext(ctx context.Context, component string) *Logger {
	return New(component).WithRequest(GetRequestID(ctx))
}
