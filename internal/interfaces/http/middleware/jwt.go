package middleware

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/possale/backend/internal/infrastructure/auth"
	"github.com/possale/backend/internal/infrastructure/logger"
	"github.com/possale/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Context keys set for authenticated requests
const (
	JWTClaimsKey = "jwt_claims"
	JWTUserIDKey = logger.GinUserIDKey
	JWTRoleKey   = "jwt_role"
)

const bearerScheme = "Bearer "

// JWTMiddlewareConfig configures JWT authentication
type JWTMiddlewareConfig struct {
	JWTService *auth.JWTService
	// TokenBlacklist, when set, rejects logged-out tokens and every token
	// of a deactivated cashier
	TokenBlacklist auth.TokenBlacklist
	// SkipPaths are served without a token
	SkipPaths []string
	// OnError replaces the default 401 response
	OnError func(c *gin.Context, err error)
	Logger  *zap.Logger
}

// DefaultJWTConfig skips health checks, login, refresh and the one-time
// admin bootstrap
func DefaultJWTConfig(jwtService *auth.JWTService) JWTMiddlewareConfig {
	return JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/health",
			"/api/v1/health",
			"/api/v1/auth/login",
			"/api/v1/auth/refresh",
			"/api/v1/users/admin-register",
		},
	}
}

// JWTAuthMiddleware authenticates with the default config
func JWTAuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(DefaultJWTConfig(jwtService))
}

// JWTAuthMiddlewareWithConfig authenticates bearer access tokens and puts
// the claims, user id and role on the gin and request contexts.
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		if slices.Contains(cfg.SkipPaths, c.Request.URL.Path) {
			c.Next()
			return
		}

		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), bearerScheme)
		if !ok || strings.TrimSpace(token) == "" {
			rejectToken(c, cfg, log, auth.ErrInvalidToken)
			return
		}

		claims, err := cfg.JWTService.ValidateAccessToken(token)
		if err == nil {
			err = checkRevoked(c.Request.Context(), cfg.TokenBlacklist, claims, log)
		}
		if err != nil {
			rejectToken(c, cfg, log, err)
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTUserIDKey, claims.UserID)
		c.Set(JWTRoleKey, claims.Role)

		ctx := c.Request.Context()
		ctx, _ = logger.WithUser(ctx, logger.FromContext(ctx), claims.UserID, claims.Role)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// checkRevoked consults the blacklist. Lookup failures are logged and the
// token is accepted: a Redis outage must not lock every till out.
func checkRevoked(ctx context.Context, blacklist auth.TokenBlacklist, claims *auth.Claims, log *zap.Logger) error {
	if blacklist == nil {
		return nil
	}

	if claims.ID != "" {
		revoked, err := blacklist.IsBlacklisted(ctx, claims.ID)
		switch {
		case err != nil:
			log.Error("Failed to check token blacklist", zap.String("jti", claims.ID), zap.Error(err))
		case revoked:
			return auth.ErrTokenBlacklisted
		}
	}

	invalidated, err := blacklist.IsUserTokenInvalidated(ctx, claims.UserID, claims.IssuedAtTime())
	switch {
	case err != nil:
		log.Error("Failed to check user token invalidation", zap.String("user_id", claims.UserID), zap.Error(err))
	case invalidated:
		return auth.ErrTokenBlacklisted
	}
	return nil
}

func rejectToken(c *gin.Context, cfg JWTMiddlewareConfig, log *zap.Logger, err error) {
	if cfg.OnError != nil {
		cfg.OnError(c, err)
		return
	}

	code, message := dto.ErrCodeUnauthorized, "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, message = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenBlacklisted):
		code, message = dto.ErrCodeTokenRevoked, "Token has been revoked"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidTokenType),
		errors.Is(err, auth.ErrInvalidClaims), errors.Is(err, auth.ErrTokenNotYetValid):
		code, message = dto.ErrCodeTokenInvalid, "Invalid token"
	}

	log.Warn("JWT authentication failed",
		zap.String("code", code),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.Fail(code, message, c.GetString(logger.GinRequestIDKey)))
}

// GetJWTClaims returns the authenticated claims, or nil
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(JWTClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetJWTUserID returns the authenticated user id, or ""
func GetJWTUserID(c *gin.Context) string {
	return c.GetString(JWTUserIDKey)
}

// GetJWTRole returns the authenticated role, or ""
func GetJWTRole(c *gin.Context) string {
	return c.GetString(JWTRoleKey)
}
