package instrument

import (
	"math/rand/v2"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// TraceHeader carries the trace id in and out of the gateway.
const TraceHeader = "X-Trace-ID"

// Middleware assigns each request a trace id (accepting the caller's) and
// attaches an instrumenter. Requests sampled out get the no-op one.
func Middleware(rec Instrumenter, enabled bool, samplingRate float64) fiber.Handler {
	return func(c *fiber.Ctx) error {
		traceID := c.Get(TraceHeader)
		if _, err := uuid.Parse(traceID); err != nil {
			traceID = uuid.NewString()
		}
		c.Set(TraceHeader, traceID)
		c.Locals("trace_id", traceID)

		ctx := WithTraceID(c.UserContext(), traceID)
		if enabled && rec != nil && (samplingRate >= 1 || rand.Float64() < samplingRate) {
			ctx = WithInstrumenter(ctx, rec)
		}
		c.SetUserContext(ctx)

		ctx, span := GetInstrumenter(ctx).StartSpan(ctx, "http", "handler", c.Method()+" "+c.Path())
		c.SetUserContext(ctx)
		err := c.Next()
		span.SetMetadata("path", c.Path())
		span.SetMetadata("status_code", c.Response().StatusCode())
		if err != nil || c.Response().StatusCode() >= 500 {
			span.SetStatus("error")
		}
		span.End()
		return err
	}
}
