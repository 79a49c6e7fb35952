// Package auth issues and validates the access/refresh token pairs used by
// the till and the back office, and keeps the revocation list.
package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/possale/backend/internal/infrastructure/config"
)

// TokenType tells access tokens from refresh tokens
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Validation failures. Missing-field errors also match ErrInvalidClaims.
var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
	ErrTokenNotYetValid   = errors.New("token is not yet valid")
	ErrInvalidTokenType   = errors.New("invalid token type")
	ErrInvalidClaims      = errors.New("invalid token claims")
	ErrMissingUserID      = errors.New("missing user_id in claims")
	ErrMissingRole        = errors.New("missing role in claims")
	ErrMaxRefreshExceeded = errors.New("maximum refresh count exceeded")
	ErrTokenBlacklisted   = errors.New("token has been revoked")
)

// Claims is the payload of both token types. Refresh tokens leave
// Username and Permissions empty.
type Claims struct {
	jwt.RegisteredClaims
	UserID       string    `json:"user_id"`
	Username     string    `json:"username,omitempty"`
	Role         string    `json:"role"`
	Permissions  []string  `json:"permissions,omitempty"`
	TokenType    TokenType `json:"token_type"`
	RefreshCount int       `json:"refresh_count,omitempty"`
}

// UserUUID parses UserID
func (c *Claims) UserUUID() (uuid.UUID, error) { return uuid.Parse(c.UserID) }

// HasPermission reports whether the token was issued with permission
func (c *Claims) HasPermission(permission string) bool {
	return slices.Contains(c.Permissions, permission)
}

// IssuedAtTime is the iat claim, zero when absent
func (c *Claims) IssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// TTL is how long the token stays valid, never negative
func (c *Claims) TTL() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return max(time.Until(c.ExpiresAt.Time), 0)
}

// Subject is who a token pair is issued to
type Subject struct {
	UserID      uuid.UUID
	Username    string
	Role        string
	Permissions []string
}

// TokenPair is returned by login and refresh
type TokenPair struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// JWTService signs and checks HS256 tokens. The two token types are signed
// with separate secrets when a refresh secret is configured.
type JWTService struct {
	secrets    map[TokenType][]byte
	ttl        map[TokenType]time.Duration
	issuer     string
	maxRefresh int
	parser     *jwt.Parser
	now        func() time.Time
}

// NewJWTService creates a JWTService. An empty refresh secret reuses the
// access secret.
func NewJWTService(cfg config.JWTConfig) *JWTService {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer), jwt.WithAudience(cfg.Issuer))
	}

	refreshSecret := cfg.RefreshSecret
	if refreshSecret == "" {
		refreshSecret = cfg.Secret
	}
	return &JWTService{
		secrets: map[TokenType][]byte{
			TokenTypeAccess:  []byte(cfg.Secret),
			TokenTypeRefresh: []byte(refreshSecret),
		},
		ttl: map[TokenType]time.Duration{
			TokenTypeAccess:  cfg.AccessTokenExpiration,
			TokenTypeRefresh: cfg.RefreshTokenExpiration,
		},
		issuer:     cfg.Issuer,
		maxRefresh: cfg.MaxRefreshCount,
		parser:     jwt.NewParser(opts...),
		now:        time.Now,
	}
}

// Issue signs a fresh access/refresh pair for sub
func (s *JWTService) Issue(sub Subject) (*TokenPair, error) {
	return s.issue(sub, 0)
}

// Refresh exchanges a valid refresh token for a new pair. sub carries the
// user's current role and permissions, so a role change applies from the
// next refresh on.
func (s *JWTService) Refresh(refreshToken string, sub Subject) (*TokenPair, error) {
	claims, err := s.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.RefreshCount >= s.maxRefresh {
		return nil, ErrMaxRefreshExceeded
	}
	if id, err := claims.UserUUID(); err != nil || id != sub.UserID {
		return nil, ErrInvalidClaims
	}
	return s.issue(sub, claims.RefreshCount+1)
}

// ValidateAccessToken checks an access token and returns its claims
func (s *JWTService) ValidateAccessToken(token string) (*Claims, error) {
	return s.validate(token, TokenTypeAccess)
}

// ValidateRefreshToken checks a refresh token and returns its claims
func (s *JWTService) ValidateRefreshToken(token string) (*Claims, error) {
	return s.validate(token, TokenTypeRefresh)
}

func (s *JWTService) issue(sub Subject, refreshCount int) (*TokenPair, error) {
	now := s.now()

	access, accessExp, err := s.sign(now, &Claims{
		UserID:      sub.UserID.String(),
		Username:    sub.Username,
		Role:        sub.Role,
		Permissions: sub.Permissions,
		TokenType:   TokenTypeAccess,
	})
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.sign(now, &Claims{
		UserID:       sub.UserID.String(),
		Role:         sub.Role,
		TokenType:    TokenTypeRefresh,
		RefreshCount: refreshCount,
	})
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:           access,
		RefreshToken:          refresh,
		AccessTokenExpiresAt:  accessExp,
		RefreshTokenExpiresAt: refreshExp,
		TokenType:             "Bearer",
	}, nil
}

// sign fills the registered claims for claims.TokenType and signs
func (s *JWTService) sign(now time.Time, claims *Claims) (string, time.Time, error) {
	expires := now.Add(s.ttl[claims.TokenType])
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    s.issuer,
		Subject:   claims.UserID,
		Audience:  jwt.ClaimStrings{s.issuer},
		ExpiresAt: jwt.NewNumericDate(expires),
		NotBefore: jwt.NewNumericDate(now),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secrets[claims.TokenType])
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", claims.TokenType, err)
	}
	return signed, expires, nil
}

func (s *JWTService) validate(token string, want TokenType) (*Claims, error) {
	claims := &Claims{}
	_, err := s.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secrets[want], nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return nil, ErrTokenNotYetValid
	case err != nil:
		return nil, ErrInvalidToken
	case claims.TokenType != want:
		return nil, ErrInvalidTokenType
	case claims.UserID == "":
		return nil, fmt.Errorf("%w: %w", ErrInvalidClaims, ErrMissingUserID)
	case claims.Role == "":
		return nil, fmt.Errorf("%w: %w", ErrInvalidClaims, ErrMissingRole)
	}
	return claims, nil
}
