package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/possale/backend/internal/domain/identity"
	"github.com/possale/backend/internal/infrastructure/auth"
	"github.com/possale/backend/internal/infrastructure/logger"
	"github.com/possale/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// PermissionConfig configures the permission middleware
type PermissionConfig struct {
	Logger *zap.Logger
	// OnDenied replaces the default 403 response
	OnDenied func(c *gin.Context, required []string)
}

// RequirePermission admits callers holding permission
func RequirePermission(permission string) gin.HandlerFunc {
	return RequireAnyPermissionWithConfig(PermissionConfig{}, permission)
}

// RequirePermissionWithConfig is RequirePermission with a config
func RequirePermissionWithConfig(permission string, cfg PermissionConfig) gin.HandlerFunc {
	return RequireAnyPermissionWithConfig(cfg, permission)
}

// RequireAnyPermission admits callers holding at least one of permissions
func RequireAnyPermission(permissions ...string) gin.HandlerFunc {
	return RequireAnyPermissionWithConfig(PermissionConfig{}, permissions...)
}

// RequireAnyPermissionWithConfig admits callers holding at least one of
// permissions. A permission counts only when the token carries it and the
// caller's role still grants it, so tokens minted before a role change
// cannot outlive it.
func RequireAnyPermissionWithConfig(cfg PermissionConfig, permissions ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.Fail(
				dto.ErrCodeUnauthorized, "Authentication required", c.GetString(logger.GinRequestIDKey)))
			return
		}

		for _, p := range permissions {
			if granted(claims, p) {
				c.Next()
				return
			}
		}
		denyPermission(c, cfg, claims, permissions)
	}
}

// HasPermission reports whether the authenticated caller holds permission.
// For use inside handlers.
func HasPermission(c *gin.Context, permission string) bool {
	claims := GetJWTClaims(c)
	return claims != nil && granted(claims, permission)
}

func granted(claims *auth.Claims, permission string) bool {
	return claims.HasPermission(permission) && identity.Role(claims.Role).HasPermission(permission)
}

func denyPermission(c *gin.Context, cfg PermissionConfig, claims *auth.Claims, required []string) {
	if cfg.OnDenied != nil {
		cfg.OnDenied(c, required)
		return
	}

	if cfg.Logger != nil {
		cfg.Logger.Warn("Permission denied",
			zap.String("user_id", claims.UserID),
			zap.String("role", claims.Role),
			zap.Strings("required_permissions", required),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)
	}

	c.AbortWithStatusJSON(http.StatusForbidden, dto.Fail(
		dto.ErrCodeForbidden,
		fmt.Sprintf("Access denied: the %s role lacks %s", claims.Role, strings.Join(required, " or ")),
		c.GetString(logger.GinRequestIDKey),
	))
}
