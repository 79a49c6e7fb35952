// Package identity implements sign-in for admins and cashiers and the admin
// side of account management.
package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/possale/backend/internal/domain/identity"
	"github.com/possale/backend/internal/domain/shared"
	"github.com/possale/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

var (
	errInvalidCredentials = shared.NewDomainError(shared.CodeUnauthorized, "Invalid credentials")
	errAccountInactive    = shared.NewDomainError(shared.CodeForbidden, "Account is inactive. Please contact administrator.")
)

// AuthService handles authentication operations
type AuthService struct {
	userRepo   identity.UserRepository
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service. blacklist may be nil,
// in which case logout only ends the session client-side.
func NewAuthService(
	userRepo identity.UserRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		userRepo:   userRepo,
		jwtService: jwtService,
		blacklist:  blacklist,
		logger:     logger,
	}
}

// Login authenticates a user and returns a token pair with the user's role
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	username := strings.ToLower(strings.TrimSpace(input.Username))
	if username == "" || input.Password == "" {
		return nil, shared.NewInvalidRequestError("Username and password are required")
	}
	if err := identity.ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Login for unknown username", zap.String("username", username), zap.String("ip", input.IP))
			return nil, errInvalidCredentials
		}
		s.logger.Error("Failed to load user for login", zap.Error(err))
		return nil, shared.NewStorageUnavailableError(err)
	}

	if !user.VerifyPassword(input.Password) {
		s.logger.Warn("Invalid password attempt", zap.String("username", username), zap.String("ip", input.IP))
		return nil, errInvalidCredentials
	}
	if !user.CanLogin() {
		s.logger.Warn("Login attempt for inactive account", zap.String("username", username))
		return nil, errAccountInactive
	}

	pair, err := s.jwtService.Issue(tokenInput(user))
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, err
	}

	user.RecordLoginSuccess()
	if err := s.userRepo.Save(ctx, user); err != nil {
		// The login itself succeeded
		s.logger.Error("Failed to record login", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	s.logger.Info("User logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)),
	)

	dto := ToUserDTO(user)
	dto.Permissions = user.Permissions()
	return &LoginResult{
		Token: toTokenResult(pair),
		Role:  string(user.Role),
		User:  dto,
	}, nil
}

// RefreshToken exchanges a refresh token for a new pair. The user is
// re-read so deactivation and role changes apply immediately.
func (s *AuthService) RefreshToken(ctx context.Context, input RefreshTokenInput) (*TokenResult, error) {
	claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
	if err != nil {
		s.logger.Warn("Refresh token validation failed", zap.Error(err))
		return nil, mapTokenError(err)
	}

	userID, err := claims.UserUUID()
	if err != nil {
		return nil, shared.NewDomainError(shared.CodeUnauthorized, "Invalid refresh token")
	}

	if s.blacklist != nil {
		revoked, err := s.blacklist.IsUserTokenInvalidated(ctx, claims.UserID, claims.IssuedAtTime())
		if err != nil {
			return nil, shared.NewStorageUnavailableError(err)
		}
		if revoked {
			return nil, shared.NewDomainError(shared.CodeUnauthorized, "Refresh token has been revoked")
		}
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeUnauthorized, "User no longer exists")
		}
		return nil, shared.NewStorageUnavailableError(err)
	}
	if !user.CanLogin() {
		return nil, errAccountInactive
	}

	pair, err := s.jwtService.Refresh(input.RefreshToken, tokenInput(user))
	if err != nil {
		s.logger.Warn("Token refresh failed", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, mapTokenError(err)
	}

	result := toTokenResult(pair)
	return &result, nil
}

// Logout revokes the presented access token
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	s.logger.Info("User logout", zap.String("user_id", input.UserID.String()))
	if s.blacklist == nil || input.TokenJTI == "" || input.TokenTTL <= 0 {
		return nil
	}
	if err := s.blacklist.AddToBlacklist(ctx, input.TokenJTI, input.TokenTTL); err != nil {
		s.logger.Error("Failed to blacklist token", zap.Error(err))
		return shared.NewStorageUnavailableError(err)
	}
	return nil
}

// GetCurrentUser returns the signed-in user with their permissions
func (s *AuthService) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	dto := ToUserDTO(user)
	dto.Permissions = user.Permissions()
	return &dto, nil
}

func tokenInput(user *identity.User) auth.Subject {
	return auth.Subject{
		UserID:      user.ID,
		Username:    user.Username,
		Role:        string(user.Role),
		Permissions: user.Permissions(),
	}
}

func toTokenResult(pair *auth.TokenPair) TokenResult {
	return TokenResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
	}
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return shared.NewDomainError(shared.CodeUnauthorized, "Refresh token has expired")
	case errors.Is(err, auth.ErrMaxRefreshExceeded):
		return shared.NewDomainError(shared.CodeUnauthorized, "Maximum token refresh count exceeded. Please log in again")
	default:
		return shared.NewDomainError(shared.CodeUnauthorized, "Invalid refresh token")
	}
}
