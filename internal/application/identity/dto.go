package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/possale/backend/internal/domain/identity"
)

// LoginInput contains the input for user login
type LoginInput struct {
	Username string
	Password string
	IP       string // Client IP, logged only
}

// TokenResult is an issued access/refresh token pair
type TokenResult struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	Token TokenResult `json:"token"`
	Role  string      `json:"role"`
	User  UserDTO     `json:"user"`
}

// RefreshTokenInput contains the input for token refresh
type RefreshTokenInput struct {
	RefreshToken string
}

// LogoutInput identifies the access token being given up
type LogoutInput struct {
	UserID   uuid.UUID
	TokenJTI string
	TokenTTL time.Duration // remaining lifetime of the access token
}

// RegisterAdminInput contains the input for the first admin account
type RegisterAdminInput struct {
	Username string
	Password string
}

// RegisterCashierInput contains the input for creating a cashier
type RegisterCashierInput struct {
	FirstName   string
	LastName    string
	Username    string
	Birthday    time.Time
	PhoneNumber string
	Password    string
}

// UpdateCashierInput contains the input for updating a cashier. Nil fields
// keep their current value; an empty password keeps the current one.
type UpdateCashierInput struct {
	FirstName   *string
	LastName    *string
	Username    *string
	Birthday    *time.Time
	PhoneNumber *string
	Password    *string
	IsActive    *bool
}

// UserDTO is a user as returned by the API. It never carries the password hash.
type UserDTO struct {
	ID          uuid.UUID  `json:"id"`
	Username    string     `json:"username"`
	Role        string     `json:"role"`
	FirstName   string     `json:"first_name,omitempty"`
	LastName    string     `json:"last_name,omitempty"`
	Birthday    *time.Time `json:"birthday,omitempty"`
	PhoneNumber string     `json:"phone_number,omitempty"`
	IsActive    bool       `json:"is_active"`
	Permissions []string   `json:"permissions,omitempty"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ToUserDTO converts a domain User to UserDTO
func ToUserDTO(u *identity.User) UserDTO {
	return UserDTO{
		ID:          u.ID,
		Username:    u.Username,
		Role:        string(u.Role),
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Birthday:    u.Birthday,
		PhoneNumber: u.PhoneNumber,
		IsActive:    u.Active,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
