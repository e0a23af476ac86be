package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/kart-io/sentinel-ask/pkg/middleware/common"
)

// TracerName is the name of the tracer for HTTP middleware.
const TracerName = "github.com/kart-io/sentinel-ask/pkg/middleware"

// TracingConfig defines the config for Tracing middleware.
type TracingConfig struct {
	// SkipPaths is a list of paths to skip tracing.
	SkipPaths []string
}

// DefaultTracingConfig is the default Tracing middleware config.
var DefaultTracingConfig = TracingConfig{
	SkipPaths: []string{"/healthz"},
}

// Tracing returns a middleware that starts a server span per request.
func Tracing() gin.HandlerFunc {
	return TracingWithConfig(DefaultTracingConfig)
}

// TracingWithConfig returns a Tracing middleware with custom config.
//
// The incoming W3C trace context is extracted, so the span joins the caller's
// trace, and the request context carries the span for downstream calls.
// Must run after RequestID so the id can be attached.
func TracingWithConfig(config TracingConfig) gin.HandlerFunc {
	skipPaths := make(map[string]bool, len(config.SkipPaths))
	for _, path := range config.SkipPaths {
		skipPaths[path] = true
	}

	return func(c *gin.Context) {
		req := c.Request
		if skipPaths[req.URL.Path] {
			c.Next()
			return
		}

		ctx := otel.GetTextMapPropagator().Extract(req.Context(), propagation.HeaderCarrier(req.Header))

		route := c.FullPath()
		if route == "" {
			route = req.URL.Path
		}
		ctx, span := otel.Tracer(TracerName).Start(ctx, req.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPMethod(req.Method),
				semconv.HTTPRoute(route),
				semconv.HTTPTarget(req.URL.Path),
				semconv.ServerAddress(req.Host),
			),
		)
		defer span.End()

		if requestID := common.GetRequestID(ctx); requestID != "" {
			span.SetAttributes(attribute.String("http.request_id", requestID))
		}

		c.Request = req.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(semconv.HTTPStatusCode(status))
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}
