package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/possale/backend/internal/domain/identity"
	"github.com/possale/backend/internal/infrastructure/auth"
	"github.com/possale/backend/internal/infrastructure/config"
	"github.com/possale/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func tokenService(accessTTL time.Duration) *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "middleware-access-secret-0123456789",
		RefreshSecret:          "middleware-refresh-secret-012345678",
		AccessTokenExpiration:  accessTTL,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "pos-test",
		MaxRefreshCount:        3,
	})
}

// signIn issues a pair for a fresh user with role's current permissions
func signIn(t *testing.T, svc *auth.JWTService, role identity.Role) (*auth.TokenPair, auth.Subject) {
	t.Helper()
	sub := auth.Subject{
		UserID:      uuid.New(),
		Username:    "till-" + string(role),
		Role:        string(role),
		Permissions: role.Permissions(),
	}
	pair, err := svc.Issue(sub)
	require.NoError(t, err)
	return pair, sub
}

func bearer(pair *auth.TokenPair) string {
	return "Bearer " + pair.AccessToken
}

// get requests path with the given Authorization header, none when empty
func get(router http.Handler, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorInfo {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	return *resp.Error
}

func okHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
