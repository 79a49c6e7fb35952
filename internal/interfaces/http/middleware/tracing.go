package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/possale/backend/internal/infrastructure/logger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig configures request spans
type TracingConfig struct {
	ServiceName string
	Enabled     bool
	// SkipPaths get no span; probes would otherwise flood the backend
	SkipPaths []string
}

// DefaultTracingConfig traces everything but the health and metrics probes
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName: "pos-backend",
		Enabled:     true,
		SkipPaths:   []string{"/health", "/metrics"},
	}
}

// Tracing starts a span per request with the default config
func Tracing() gin.HandlerFunc {
	return TracingWithConfig(DefaultTracingConfig())
}

// TracingWithConfig wraps otelgin. Spans are named "METHOD route", so a
// checkout shows up as "POST /api/v1/sales".
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	var opts []otelgin.Option
	if len(cfg.SkipPaths) > 0 {
		opts = append(opts, otelgin.WithFilter(func(r *http.Request) bool {
			return !slices.Contains(cfg.SkipPaths, r.URL.Path)
		}))
	}
	return otelgin.Middleware(cfg.ServiceName, opts...)
}

// TracingAttributeInjector tags the request span with the request id and
// the authenticated user. It must run after RequestID and JWT auth.
func TracingAttributeInjector() gin.HandlerFunc {
	return func(c *gin.Context) {
		if span := trace.SpanFromContext(c.Request.Context()); span.IsRecording() {
			span.SetAttributes(requestAttributes(c)...)
		}
		c.Next()
	}
}

func requestAttributes(c *gin.Context) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	for key, value := range map[string]string{
		"request_id": c.GetString(logger.GinRequestIDKey),
		"user_id":    GetJWTUserID(c),
		"role":       GetJWTRole(c),
	} {
		if value != "" {
			attrs = append(attrs, attribute.String(key, value))
		}
	}
	return attrs
}

// spanErrorText is the span status description for a 4xx response
func spanErrorText(status int) string {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusUnprocessableEntity:
		return http.StatusText(status)
	}
	return "Client Error"
}

// SpanErrorMarker marks the request span as failed for 4xx responses and
// tags every failed span with its status code. otelgin already sets an
// error status for 5xx, overwriting any description. It must run after
// Tracing.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		span := trace.SpanFromContext(c.Request.Context())
		if status < http.StatusBadRequest || !span.IsRecording() {
			return
		}
		if status < http.StatusInternalServerError {
			span.SetStatus(codes.Error, spanErrorText(status))
		}
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
}
