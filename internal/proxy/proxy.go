// Package proxy forwards the backend's REST surface through the gateway.
package proxy

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/proxy"
	"go.uber.org/zap"

	"kairos-gateway/internal/engine"
	"kairos-gateway/internal/frappe"
	"kairos-gateway/internal/instrument"
)

// Prefixes are the backend paths forwarded as-is.
var Prefixes = []string{"/api/resource", "/api/method"}

// Forward returns a handler that sends the request to baseURL with the same
// path, query, method, headers and body, and relays the response.
func Forward(baseURL string, timeout time.Duration, logger *zap.Logger) fiber.Handler {
	logger = logger.Named("Proxy")
	return func(c *fiber.Ctx) error {
		target := baseURL + c.OriginalURL()

		ctx, span := instrument.GetInstrumenter(c.UserContext()).StartSpan(c.UserContext(), "proxy", "forward", c.Method()+" "+c.Path())
		defer span.End()
		if traceID := instrument.TraceIDFrom(ctx); traceID != "" {
			c.Request().Header.Set(instrument.TraceHeader, traceID)
		}
		c.Request().Header.Add(fiber.HeaderXForwardedFor, c.IP())

		if err := proxy.DoTimeout(c, target, timeout); err != nil {
			span.SetStatus("error")
			te := frappe.NewTransportError(c.Method()+" "+c.Path(), err)
			logger.Warn("forward failed", zap.String("path", c.Path()), zap.Bool("timeout", te.Timeout), zap.Error(err))
			return engine.BackendError(te)
		}
		span.SetMetadata("status_code", c.Response().StatusCode())
		c.Response().Header.Del(fiber.HeaderServer)
		return nil
	}
}

// Register mounts the forwarder on every prefix. Gateway-owned /api routes
// must be registered first.
func Register(app *fiber.App, h fiber.Handler) {
	for _, p := range Prefixes {
		app.All(p, h)
		app.All(p+"/*", h)
	}
}
