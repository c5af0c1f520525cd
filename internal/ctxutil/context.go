// Package ctxutil provides type-safe context value management.
// Uses private key types to prevent collisions.
package ctxutil

import (
	"context"
)

type contextKey string

const (
	requestIDKey contextKey = "ctxutil.requestID"
	variantKey   contextKey = "ctxutil.variant"
)

// WithRequestID adds a request ID to the context for tracing.
// The ID comes from the caller's X-Request-Id header or is generated per request.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
// Returns the request ID and true if found, empty string and false otherwise.
func GetRequestID(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(requestIDKey).(string)
	return requestID, ok
}

// WithVariant records which responder variant is handling the request.
func WithVariant(ctx context.Context, variant string) context.Context {
	return context.WithValue(ctx, variantKey, variant)
}

// GetVariant returns the responder variant, or empty string if unset.
func GetVariant(ctx context.Context) string {
	if v, ok := ctx.Value(variantKey).(string); ok {
		return v
	}
	return ""
}
