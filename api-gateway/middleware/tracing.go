package middleware

import (
	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware starts a server span per request, continuing any trace
// the caller sent, and forwards the context to the upstream in the request
// headers.
func TracingMiddleware() fiber.Handler {
	tracer := otel.Tracer("storefront-gateway")

	return func(c *fiber.Ctx) error {
		inbound := propagation.HeaderCarrier{}
		c.Request().Header.VisitAll(func(k, v []byte) {
			inbound.Set(string(k), string(v))
		})
		parent := otel.GetTextMapPropagator().Extract(c.UserContext(), inbound)

		ctx, span := tracer.Start(parent, c.Method()+" "+c.Path(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Method()),
				attribute.String("http.target", c.OriginalURL()),
				attribute.String("http.host", c.Hostname()),
				attribute.String("http.user_agent", c.Get(fiber.HeaderUserAgent)),
				attribute.String("net.peer.ip", c.IP()),
			),
		)
		defer span.End()

		c.SetUserContext(ctx)

		outbound := propagation.HeaderCarrier{}
		otel.GetTextMapPropagator().Inject(ctx, outbound)
		for key := range outbound {
			c.Request().Header.Set(key, outbound.Get(key))
		}
		if span.SpanContext().HasTraceID() {
			c.Set("X-Trace-Id", span.SpanContext().TraceID().String())
		}

		err := c.Next()

		status := c.Response().StatusCode()
		span.SetAttributes(attribute.Int("http.status_code", status))
		switch {
		case err != nil:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		case status >= fiber.StatusInternalServerError:
			span.SetStatus(codes.Error, "Server Error")
		default:
			span.SetStatus(codes.Ok, "")
		}
		return err
	}
}
