package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/meteomcp/internal/pkg/logging"
)

// RequestIDLogMiddleware puts a logger tagged with the Fiber request ID into
// the user context. Everything below the router logs through
// logging.FromContext and inherits the tag.
func RequestIDLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid, _ := c.Locals("requestid").(string)
		if rid == "" {
			return c.Next()
		}

		ctx := c.UserContext()
		if ctx == nil {
			ctx = context.Background()
		}
		c.SetUserContext(logging.WithLogger(ctx, slog.Default().With("request_id", rid)))
		return c.Next()
	}
}

// AccessLogMiddleware writes one line per request. 4xx responses log at warn,
// 5xx and handler errors at error.
func AccessLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		method, path := c.Method(), c.Path()

		err := c.Next()

		status := c.Response().StatusCode()
		attrs := []slog.Attr{
			slog.String("method", method),
			slog.String("path", path),
			slog.String("route", c.Route().Path),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.Int("bytes_out", len(c.Response().Body())),
		}
		if q := c.Query("location"); q != "" {
			attrs = append(attrs, slog.String("location", q))
		}

		level := slog.LevelInfo
		switch {
		case err != nil:
			attrs = append(attrs, slog.String("error", err.Error()))
			level = slog.LevelError
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}

		// The context logger already carries request_id (and user once auth ran).
		logging.FromContext(c.UserContext()).LogAttrs(c.UserContext(), level, method+" "+path, attrs...)
		return err
	}
}
