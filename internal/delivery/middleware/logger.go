package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"storefront/config"
	deliverycontext "storefront/internal/delivery/context"

	"github.com/labstack/echo/v4"
)

// LoggerMiddleware writes an access line per request. It is inert unless
// env.debug is set.
type LoggerMiddleware struct {
	fallback *slog.Logger
	enabled  bool
}

func NewLoggerMiddleware(logger *slog.Logger, cfg *config.Config) *LoggerMiddleware {
	return &LoggerMiddleware{fallback: logger, enabled: cfg.Env.Debug}
}

func (m *LoggerMiddleware) Handle(next echo.HandlerFunc) echo.HandlerFunc {
	if !m.enabled {
		return next
	}

	return func(c echo.Context) error {
		start := time.Now()

		err := next(c)
		if err != nil {
			// Render the error now so the access line shows the final status.
			c.Error(err)
		}

		req := c.Request()
		logger := deliverycontext.GetLoggerOrDefault(req.Context(), m.fallback)
		status := c.Response().Status
		logger.LogAttrs(req.Context(), statusLevel(status), "HTTP Request", accessAttrs(c, start, err)...)

		return nil
	}
}

func statusLevel(status int) slog.Level {
	if status >= http.StatusInternalServerError {
		return slog.LevelError
	}
	if status >= http.StatusBadRequest {
		return slog.LevelWarn
	}

	return slog.LevelInfo
}

func accessAttrs(c echo.Context, start time.Time, err error) []slog.Attr {
	req, res := c.Request(), c.Response()

	attrs := []slog.Attr{
		slog.String("method", req.Method),
		slog.String("uri", req.URL.Path),
		slog.String("route", c.Path()),
		slog.Int("status", res.Status),
		slog.Int64("bytes_out", res.Size),
		slog.Duration("latency", time.Since(start)),
		slog.String("remote_ip", c.RealIP()),
		slog.String("user_agent", req.UserAgent()),
	}
	if req.URL.RawQuery != "" {
		attrs = append(attrs, slog.String("query", req.URL.RawQuery))
	}
	if err != nil {
		attrs = append(attrs, slog.Any("error", err))
	}

	return attrs
}
