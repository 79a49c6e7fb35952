package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/possale/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	accessSecret  = "till-access-secret-0123456789abcdef"
	refreshSecret = "till-refresh-secret-0123456789abcd"
	issuer        = "pos-test"
)

func tokenConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 accessSecret,
		RefreshSecret:          refreshSecret,
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 12 * time.Hour,
		Issuer:                 issuer,
		MaxRefreshCount:        10,
	}
}

func cashier() Subject {
	return Subject{
		UserID:      uuid.New(),
		Username:    "till-3",
		Role:        "cashier",
		Permissions: []string{"product:read", "sale:create"},
	}
}

// forge signs claims the service never would, to exercise validation
func forge(t *testing.T, method jwt.SigningMethod, secret string, claims *Claims) string {
	t.Helper()
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    issuer,
		Audience:  jwt.ClaimStrings{issuer},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
	}
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestJWTService_IssueAndValidate(t *testing.T) {
	svc := NewJWTService(tokenConfig())
	sub := cashier()

	pair, err := svc.Issue(sub)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.True(t, pair.RefreshTokenExpiresAt.After(pair.AccessTokenExpiresAt))

	access, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeAccess, access.TokenType)
	assert.Equal(t, "till-3", access.Username)
	assert.Equal(t, sub.Permissions, access.Permissions)
	assert.Equal(t, sub.UserID.String(), access.Subject)
	assert.NotEmpty(t, access.ID)
	id, err := access.UserUUID()
	require.NoError(t, err)
	assert.Equal(t, sub.UserID, id)

	refresh, err := svc.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, refresh.TokenType)
	assert.Empty(t, refresh.Permissions)
	assert.Empty(t, refresh.Username)
	assert.Zero(t, refresh.RefreshCount)
	assert.NotEqual(t, access.ID, refresh.ID)
}

func TestJWTService_RefreshSecretDefaultsToAccessSecret(t *testing.T) {
	cfg := tokenConfig()
	cfg.RefreshSecret = ""
	svc := NewJWTService(cfg)

	assert.Equal(t, svc.secrets[TokenTypeAccess], svc.secrets[TokenTypeRefresh])
}

func TestJWTService_Rejects(t *testing.T) {
	svc := NewJWTService(tokenConfig())
	pair, err := svc.Issue(cashier())
	require.NoError(t, err)

	expiredCfg := tokenConfig()
	expiredCfg.AccessTokenExpiration = -time.Hour
	expired, err := NewJWTService(expiredCfg).Issue(cashier())
	require.NoError(t, err)

	otherIssuer := tokenConfig()
	otherIssuer.Issuer = "back-office"

	tests := []struct {
		name  string
		svc   *JWTService
		token string
		want  error
	}{
		{"garbage", svc, "not.a.jwt", ErrInvalidToken},
		{"expired", svc, expired.AccessToken, ErrExpiredToken},
		{"refresh token as access token", svc, pair.RefreshToken, ErrInvalidToken},
		{"wrong issuer", NewJWTService(otherIssuer), pair.AccessToken, ErrInvalidToken},
		{"HS512", svc, forge(t, jwt.SigningMethodHS512, accessSecret, &Claims{
			UserID: uuid.NewString(), Role: "admin", TokenType: TokenTypeAccess,
		}), ErrInvalidToken},
		{"missing role", svc, forge(t, jwt.SigningMethodHS256, accessSecret, &Claims{
			UserID: uuid.NewString(), TokenType: TokenTypeAccess,
		}), ErrMissingRole},
		{"missing user", svc, forge(t, jwt.SigningMethodHS256, accessSecret, &Claims{
			Role: "admin", TokenType: TokenTypeAccess,
		}), ErrMissingUserID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.svc.ValidateAccessToken(tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestJWTService_MissingFieldsAreInvalidClaims(t *testing.T) {
	svc := NewJWTService(tokenConfig())
	token := forge(t, jwt.SigningMethodHS256, accessSecret, &Claims{UserID: uuid.NewString(), TokenType: TokenTypeAccess})

	_, err := svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidClaims)
}

func TestJWTService_TypeClaimChecked(t *testing.T) {
	cfg := tokenConfig()
	cfg.RefreshSecret = cfg.Secret
	svc := NewJWTService(cfg)
	pair, err := svc.Issue(cashier())
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidTokenType)
	_, err = svc.ValidateRefreshToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidTokenType)
}

func TestJWTService_Refresh(t *testing.T) {
	svc := NewJWTService(tokenConfig())
	sub := cashier()
	pair, err := svc.Issue(sub)
	require.NoError(t, err)

	t.Run("takes the current permissions", func(t *testing.T) {
		demoted := sub
		demoted.Permissions = []string{"product:read"}

		next, err := svc.Refresh(pair.RefreshToken, demoted)
		require.NoError(t, err)

		access, err := svc.ValidateAccessToken(next.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, []string{"product:read"}, access.Permissions)
		refresh, err := svc.ValidateRefreshToken(next.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, 1, refresh.RefreshCount)
	})

	t.Run("other user", func(t *testing.T) {
		_, err := svc.Refresh(pair.RefreshToken, cashier())
		assert.ErrorIs(t, err, ErrInvalidClaims)
	})

	t.Run("access token", func(t *testing.T) {
		_, err := svc.Refresh(pair.AccessToken, sub)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestJWTService_RefreshLimit(t *testing.T) {
	cfg := tokenConfig()
	cfg.MaxRefreshCount = 2
	svc := NewJWTService(cfg)
	sub := cashier()

	pair, err := svc.Issue(sub)
	require.NoError(t, err)
	for range cfg.MaxRefreshCount {
		pair, err = svc.Refresh(pair.RefreshToken, sub)
		require.NoError(t, err)
	}

	_, err = svc.Refresh(pair.RefreshToken, sub)
	assert.ErrorIs(t, err, ErrMaxRefreshExceeded)
}

func TestJWTService_IssuedAtUsesClock(t *testing.T) {
	svc := NewJWTService(tokenConfig())
	issued := time.Now().Add(-time.Minute).Truncate(time.Second)
	svc.now = func() time.Time { return issued }

	pair, err := svc.Issue(cashier())
	require.NoError(t, err)
	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)

	assert.True(t, claims.IssuedAtTime().Equal(issued))
	assert.Equal(t, issued.Add(15*time.Minute), pair.AccessTokenExpiresAt)
}

func TestClaims_Helpers(t *testing.T) {
	claims := &Claims{Permissions: []string{"sale:read", "report:read"}}
	assert.True(t, claims.HasPermission("sale:read"))
	assert.False(t, claims.HasPermission("sale:create"))
	assert.True(t, claims.IssuedAtTime().IsZero())
	assert.Zero(t, claims.TTL())

	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	assert.Zero(t, claims.TTL())

	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	assert.InDelta(t, time.Hour.Seconds(), claims.TTL().Seconds(), 5)
}
