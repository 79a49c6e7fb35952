package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"runtime/pprof"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestHTTPMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	router := gin.New()
	router.Use(HTTPMetrics(provider.Meter("http.server"), nil))
	router.GET("/api/v1/products/:id", okHandler)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products/abc", nil))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	metrics := collect(t, reader)

	total, ok := metrics["http_server_request_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	byRoute := map[string]int64{}
	for _, dp := range total.DataPoints {
		route, _ := dp.Attributes.Value(attrHTTPRoute)
		byRoute[route.AsString()] += dp.Value
	}
	assert.Equal(t, int64(3), byRoute["/api/v1/products/:id"])
	assert.Equal(t, int64(1), byRoute["unknown"])

	duration, ok := metrics["http_server_request_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.NotEmpty(t, duration.DataPoints)

	active, ok := metrics["http_server_active_requests"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	for _, dp := range active.DataPoints {
		assert.Equal(t, int64(0), dp.Value)
	}
}

func TestHTTPMetrics_NilMeter(t *testing.T) {
	router := gin.New()
	router.Use(HTTPMetrics(nil, nil))
	router.GET("/test", okHandler)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProfiling_Labels(t *testing.T) {
	var route, controller string
	var labelled bool

	router := gin.New()
	router.Use(Profiling("/health"))
	router.GET("/api/v1/products/:id", func(c *gin.Context) {
		route, labelled = pprof.Label(c.Request.Context(), ProfilingLabelRoute)
		controller, _ = pprof.Label(c.Request.Context(), ProfilingLabelController)
		c.Status(http.StatusOK)
	})
	router.GET("/health", func(c *gin.Context) {
		_, labelled = pprof.Label(c.Request.Context(), ProfilingLabelRoute)
		c.Status(http.StatusOK)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/products/1", nil))
	assert.True(t, labelled)
	assert.Equal(t, "/api/v1/products/:id", route)
	assert.Equal(t, "products", controller)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.False(t, labelled)
}

func TestControllerFromRoute(t *testing.T) {
	tests := map[string]string{
		"/api/v1/products/:id":         "products",
		"/api/v1/sales/reports":        "sales",
		"/api/v1/products/barcode/:bc": "products",
		"/health":                      "health",
		"/":                            "",
	}
	for route, expected := range tests {
		assert.Equal(t, expected, controllerFromRoute(route), route)
	}
}
