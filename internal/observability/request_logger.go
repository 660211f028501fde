package observability

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const unmatchedRoute = "unmatched"

// RouteLabel returns the registered route template for the request, e.g.
// "/account/password/:token". Raw paths carry ids and reset tokens and must
// not reach logs or metric keys.
func RouteLabel(c *fiber.Ctx) string {
	route := c.Route()
	// Fiber hands back a placeholder holding the raw path when nothing matched.
	if route == nil || route.Path == "" || len(route.Handlers) == 0 {
		return unmatchedRoute
	}
	return route.Path
}

// RequestLogger logs every request once the downstream chain has produced a
// response and feeds the request counters.
func RequestLogger(logger *zap.Logger, metrics *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		latency := time.Since(start)

		status := c.Response().StatusCode()
		route := RouteLabel(c)

		metrics.RecordRequest(route, c.Method(), status, latency)
		logger.Info("request",
			zap.String("method", c.Method()),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("ip", c.IP()),
		)
		return err
	}
}
