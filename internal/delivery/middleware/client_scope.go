package middleware

import (
	"log/slog"
	"regexp"

	deliverycontext "storefront/internal/delivery/context"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

var clientIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ClientScopeMiddleware resolves the storage scope a request works in from X-Client-Id.
// Missing or malformed ids fall back to the default scope.
type ClientScopeMiddleware struct{}

// NewClientScopeMiddleware creates a new client scope middleware
func NewClientScopeMiddleware() *ClientScopeMiddleware {
	return &ClientScopeMiddleware{}
}

// Process must run after RequestIDMiddleware so the scope joins the request logger.
func (m *ClientScopeMiddleware) Process(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		scope := usecase.DefaultScope
		if clientID := c.Request().Header.Get(deliverycontext.HeaderXClientID); clientIDPattern.MatchString(clientID) {
			scope = clientID
		}

		deliverycontext.SetClientScope(c, scope)

		// Carry the scope into context.Context and tag the request logger with it
		ctx := deliverycontext.WithClientScope(c.Request().Context(), scope)
		if logger := deliverycontext.GetLogger(ctx); logger != nil {
			ctx = deliverycontext.WithLogger(ctx, logger.With(slog.String("client_scope", scope)))
		}
		c.SetRequest(c.Request().WithContext(ctx))

		return next(c)
	}
}
