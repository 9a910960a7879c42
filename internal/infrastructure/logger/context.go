package logger

import (
	"context"

	"go.uber.org/zap"
)

// contextKey is a type for context keys used by the logger package
type contextKey string

const (
	// LoggerKey is the context key for the logger
	LoggerKey contextKey = "logger"
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// IdentityIDKey is the context key for the authenticated identity ID
	IdentityIDKey contextKey = "identity_id"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from context, returns a no-op logger if not found
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID adds request ID to context and returns enriched logger
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, RequestIDKey, requestID)
	enrichedLogger := logger.With(zap.String("request_id", requestID))
	return WithContext(ctx, enrichedLogger), enrichedLogger
}

// WithIdentityID adds the authenticated identity ID to context and returns enriched logger
func WithIdentityID(ctx context.Context, logger *zap.Logger, identityID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, IdentityIDKey, identityID)
	enrichedLogger := logger.With(zap.String("identity_id", identityID))
	return WithContext(ctx, enrichedLogger), enrichedLogger
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// GetIdentityID retrieves the authenticated identity ID from context
func GetIdentityID(ctx context.Context) string {
	if identityID, ok := ctx.Value(IdentityIDKey).(string); ok {
		return identityID
	}
	return ""
}
