package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveHealth(h *HealthHandler) *httptest.ResponseRecorder {
	router := gin.New()
	router.GET("/health", h.Health)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	return rec
}

func TestHealthHandler_Healthy(t *testing.T) {
	h := NewHealthHandler("pos-backend", "1.2.3").
		AddCheck("database", func(context.Context) error { return nil })

	rec := serveHealth(h)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeData[HealthResponse](t, rec)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "pos-backend", resp.Name)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.NotEmpty(t, resp.GoVersion)
	assert.Equal(t, map[string]string{"database": "ok"}, resp.Checks)
}

func TestHealthHandler_FailingDependency(t *testing.T) {
	h := NewHealthHandler("pos-backend", "dev").
		AddCheck("database", func(context.Context) error { return nil }).
		AddCheck("redis", func(ctx context.Context) error {
			_, ok := ctx.Deadline()
			assert.True(t, ok)
			return errors.New("connection refused")
		})

	rec := serveHealth(h)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	env := decode(t, rec)
	assert.False(t, env.Success)
	assert.Contains(t, string(env.Data), `"status":"unhealthy"`)
	assert.Contains(t, string(env.Data), `"redis":"error"`)
	assert.Contains(t, string(env.Data), `"database":"ok"`)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestHealthHandler_NoChecks(t *testing.T) {
	rec := serveHealth(NewHealthHandler("pos-backend", "dev"))
	assert.Equal(t, http.StatusOK, rec.Code)
}
