package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/tair/storefront/pkg/logger"
)

// StructuredLoggingMiddleware logs one line per request at a level chosen
// by the response status.
func StructuredLoggingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		duration := time.Since(start)

		ctx := c.UserContext()
		status := c.Response().StatusCode()

		var event *zerolog.Event
		switch {
		case status >= fiber.StatusInternalServerError:
			event = logger.Error(ctx)
		case status >= fiber.StatusBadRequest:
			event = logger.Warn(ctx)
		default:
			event = logger.Info(ctx)
		}

		event.
			Str("method", c.Method()).
			Str("path", c.Path()).
			Str("ip", c.IP()).
			Int("status", status).
			Int64("duration_ms", duration.Milliseconds()).
			Int("response_size", len(c.Response().Body())).
			Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
			Str("cache", c.GetRespHeader("X-Cache")).
			Err(err).
			Msg("Gateway request completed")

		return err
	}
}
