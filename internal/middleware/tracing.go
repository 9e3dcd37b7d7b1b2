package middleware

import (
	"errors"
	"fmt"

	"yatube/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// TraceIDHeader carries the request's trace id back to the client.
const TraceIDHeader = "X-Trace-ID"

// TracingMiddleware opens a server span per request, continuing any incoming
// traceparent. The span is renamed to the matched route once routing is done.
func TracingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		carrier := propagation.HeaderCarrier{}
		c.Request().Header.VisitAll(func(k, v []byte) {
			carrier.Set(string(k), string(v))
		})
		parent := otel.GetTextMapPropagator().Extract(c.UserContext(), carrier)

		ctx, span := observability.Tracer.Start(parent, c.Method()+" "+c.Path(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(c.Method()),
				semconv.URLPath(c.Path()),
				semconv.ClientAddress(c.IP()),
			),
		)
		defer span.End()

		traceID := span.SpanContext().TraceID().String()
		c.Locals("traceID", traceID)
		c.Set(TraceIDHeader, traceID)
		c.SetUserContext(ctx)

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
			span.RecordError(err)
		}
		span.SetAttributes(semconv.HTTPResponseStatusCode(status))
		if status >= fiber.StatusInternalServerError {
			span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", status))
		}

		if route := c.Route().Path; route != "" && status != fiber.StatusNotFound {
			span.SetName(c.Method() + " " + route)
			span.SetAttributes(semconv.HTTPRoute(route))
		}
		if page := c.Query("page"); page != "" {
			span.SetAttributes(attribute.String("yatube.page", page))
		}
		if rid := c.Locals("requestid"); rid != nil {
			span.SetAttributes(attribute.String("request.id", fmt.Sprint(rid)))
		}
		if username, ok := c.Locals("username").(string); ok && username != "" {
			span.SetAttributes(attribute.String("enduser.id", username))
		}
		return err
	}
}
