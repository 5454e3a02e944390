// Package context carries request-scoped values between delivery middleware and the services.
package context

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ContextKey namespaces the values this package stores.
type ContextKey string

const (
	KeyRequestID   ContextKey = "request_id"
	KeyLogger      ContextKey = "logger"
	KeyClientScope ContextKey = "client_scope"
)

const (
	HeaderXRequestID = "X-Request-Id"
	// HeaderXClientID names the storage scope a browser works in.
	HeaderXClientID = "X-Client-Id"
)

func fromEcho[T any](c echo.Context, key ContextKey) (T, bool) {
	v, ok := c.Get(string(key)).(T)

	return v, ok
}

func fromContext[T any](ctx context.Context, key ContextKey) (T, bool) {
	v, ok := ctx.Value(key).(T)

	return v, ok
}

// SetRequestID stores the request ID on the echo context.
func SetRequestID(c echo.Context, requestID string) {
	c.Set(string(KeyRequestID), requestID)
}

// GetRequestID returns the request ID, or a fresh UUID when the middleware did not run.
func GetRequestID(c echo.Context) string {
	if id, ok := fromEcho[string](c, KeyRequestID); ok && id != "" {
		return id
	}

	return uuid.NewString()
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, KeyRequestID, requestID)
}

// GetRequestIDFromContext returns "" outside a request.
func GetRequestIDFromContext(ctx context.Context) string {
	id, _ := fromContext[string](ctx, KeyRequestID)

	return id
}

func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, KeyLogger, logger)
}

// GetLogger returns the request logger, or nil outside a request.
func GetLogger(ctx context.Context) *slog.Logger {
	logger, _ := fromContext[*slog.Logger](ctx, KeyLogger)

	return logger
}

// GetLoggerOrDefault returns the request logger, falling back to fallback.
func GetLoggerOrDefault(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if logger := GetLogger(ctx); logger != nil {
		return logger
	}

	return fallback
}

// SetClientScope stores the resolved storage scope on the echo context.
func SetClientScope(c echo.Context, scope string) {
	c.Set(string(KeyClientScope), scope)
}

// GetClientScope returns "" when the scope middleware did not run; the workspace manager
// maps that to the default scope.
func GetClientScope(c echo.Context) string {
	scope, _ := fromEcho[string](c, KeyClientScope)

	return scope
}

func WithClientScope(ctx context.Context, scope string) context.Context {
	return context.WithValue(ctx, KeyClientScope, scope)
}

func GetClientScopeFromContext(ctx context.Context) string {
	scope, _ := fromContext[string](ctx, KeyClientScope)

	return scope
}
