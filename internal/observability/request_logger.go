package observability

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
)

// UnmatchedRoute labels requests that no route handled.
const UnmatchedRoute = "unmatched"

// RouteLabel returns the registered route pattern serving c, for use as a metric
// label. Requests that only passed through global middleware get UnmatchedRoute.
// The result is copied out of Fiber's reusable buffers.
func RouteLabel(c *fiber.Ctx) string {
	route := c.Route()
	if route == nil || route.Path == "" || len(route.Handlers) == 0 {
		return UnmatchedRoute
	}
	if route.Path == "/" && c.Path() != "/" {
		return UnmatchedRoute
	}
	return utils.CopyString(route.Path)
}

// RequestLogger logs one line per request and feeds the request metrics.
func RequestLogger(logger *zap.Logger, metrics *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		latency := time.Since(start)

		status := c.Response().StatusCode()
		metrics.RecordRequest(RouteLabel(c), utils.CopyString(c.Method()), status, latency)

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.OriginalURL()),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("ip", c.IP()),
		}
		if userID, ok := c.Locals("userID").(string); ok && userID != "" {
			fields = append(fields, zap.String("user_id", userID))
		}
		switch {
		case status >= 500:
			logger.Error("request completed", fields...)
		case status >= 400:
			logger.Warn("request completed", fields...)
		default:
			logger.Info("request completed", fields...)
		}
		return err
	}
}
