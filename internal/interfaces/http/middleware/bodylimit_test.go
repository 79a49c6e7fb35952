package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// cartEcho reads the whole body the way a JSON binder would
func cartEcho(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.Status(http.StatusRequestEntityTooLarge)
		return
	}
	c.String(http.StatusOK, "%d", len(body))
}

func TestBodyLimit(t *testing.T) {
	cart := `{"products":[{"productId":"7f0c1a52-5d7e-4f3c-9d1b-2f1a1c9e0b11","quantity":2}]}`
	oversized := `{"products":[` + strings.Repeat(`{"productId":"x","quantity":1},`, 20) + `]}`

	tests := []struct {
		name       string
		limit      int64
		body       string
		chunked    bool
		wantStatus int
		wantCode   string
	}{
		{"cart within limit", 256, cart, false, http.StatusOK, ""},
		{"declared length over limit", 256, oversized, false, http.StatusRequestEntityTooLarge, "REQUEST_TOO_LARGE"},
		{"chunked body capped while reading", 256, oversized, true, http.StatusRequestEntityTooLarge, ""},
		{"declared length at limit", int64(len(cart)), cart, false, http.StatusOK, ""},
		{"limit disabled", 0, oversized, false, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(BodyLimit(tt.limit))
			router.POST("/api/v1/sales", cartEcho)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(tt.body))
			if tt.chunked {
				req.ContentLength = -1
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
			}
		})
	}
}

func TestBodyLimit_StreamedCartRejectedByBinder(t *testing.T) {
	type cartBody struct {
		Products []struct {
			ProductID string `json:"productId"`
			Quantity  int64  `json:"quantity"`
		} `json:"products"`
	}

	router := gin.New()
	router.Use(BodyLimit(64))
	router.POST("/api/v1/sales", func(c *gin.Context) {
		var body cartBody
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusCreated)
	})

	oversized := `{"products":[` + strings.Repeat(`{"productId":"x","quantity":1},`, 10) + `{"productId":"x","quantity":1}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(oversized))
	req.ContentLength = -1
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	errInfo := decodeError(t, rec)
	assert.Equal(t, "REQUEST_TOO_LARGE", errInfo.Code)
	assert.Equal(t, "Request body exceeds the 64 byte limit", errInfo.Message)
	assert.EqualValues(t, 64, errInfo.Details["limit"])
}
