// Package context carries per-request values from the HTTP layer down to the
// services: the correlation id echoed back to callers and the request-scoped
// logger the services write through.
package context

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"
)

// ContextKey is the private key type for values this package stores, so they
// cannot collide with keys set by other packages.
type ContextKey string

const (
	// KeyRequestID holds the request correlation id.
	KeyRequestID ContextKey = "request_id"

	// KeyLogger holds the logger enriched with the request id.
	KeyLogger ContextKey = "logger"

	// HeaderXRequestID is the header the correlation id is read from and
	// echoed back on.
	HeaderXRequestID = "X-Request-Id"
)

// SetRequestID stores the correlation id on the echo context for the
// response path.
func SetRequestID(c echo.Context, requestID string) {
	c.Set(string(KeyRequestID), requestID)
}

// WithRequestID attaches the correlation id to a request context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, KeyRequestID, requestID)
}

// RequestIDFromContext returns the correlation id, or "" when the context
// never passed through the HTTP layer.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(KeyRequestID).(string)

	return id
}

// WithLogger attaches a request-scoped logger to a request context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, KeyLogger, logger)
}

// GetLoggerOrDefault returns the request-scoped logger, falling back to the
// given logger when none was attached.
func GetLoggerOrDefault(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if logger, ok := ctx.Value(KeyLogger).(*slog.Logger); ok && logger != nil {
		return logger
	}

	return fallback
}
