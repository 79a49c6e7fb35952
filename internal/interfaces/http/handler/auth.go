package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/possale/backend/internal/application/identity"
	"github.com/possale/backend/internal/interfaces/http/dto"
	"github.com/possale/backend/internal/interfaces/http/middleware"
)

// AuthHandler signs cashiers and admins in and out
type AuthHandler struct {
	BaseHandler
	auth *identity.AuthService
}

func NewAuthHandler(auth *identity.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// LogoutResponse is returned by POST /auth/logout
type LogoutResponse struct {
	Message string `json:"message"`
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	req, ok := bindJSON[dto.LoginRequest](c)
	if !ok {
		return
	}
	result, err := h.auth.Login(c.Request.Context(), identity.LoginInput{
		Username: req.Username,
		Password: req.Password,
		IP:       c.ClientIP(),
	})
	h.reply(c, http.StatusOK, result, err)
}

// RefreshToken handles POST /auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	req, ok := bindJSON[dto.RefreshTokenRequest](c)
	if !ok {
		return
	}
	pair, err := h.auth.RefreshToken(c.Request.Context(), identity.RefreshTokenInput{RefreshToken: req.RefreshToken})
	h.reply(c, http.StatusOK, gin.H{"token": pair}, err)
}

// Logout handles POST /auth/logout. The access token used for the call
// stays revoked until it would have expired anyway.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	userID, err := claims.UserUUID()
	if err != nil {
		h.Unauthorized(c, "Invalid user ID in token")
		return
	}

	err = h.auth.Logout(c.Request.Context(), identity.LogoutInput{
		UserID:   userID,
		TokenJTI: claims.ID,
		TokenTTL: claims.TTL(),
	})
	h.reply(c, http.StatusOK, LogoutResponse{Message: "Logged out successfully"}, err)
}

// GetCurrentUser handles GET /auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	user, err := h.auth.GetCurrentUser(c.Request.Context(), userID)
	h.reply(c, http.StatusOK, user, err)
}
