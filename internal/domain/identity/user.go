package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/possale/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Password cost for bcrypt
var bcryptCost = 12

// MinPasswordLength is the shortest password accepted at registration and login
const MinPasswordLength = 6

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-.]+$`)

// User is an admin or cashier account
type User struct {
	shared.BaseAggregateRoot
	Username     string
	PasswordHash string
	Role         Role
	FirstName    string
	LastName     string
	Birthday     *time.Time
	PhoneNumber  string
	Active       bool
	LastLoginAt  *time.Time
}

// CashierProfile holds the personal fields of a cashier account
type CashierProfile struct {
	FirstName   string
	LastName    string
	Birthday    time.Time
	PhoneNumber string
}

// NewAdmin creates an active admin account
func NewAdmin(username, password string) (*User, error) {
	return newUser(username, password, RoleAdmin)
}

// NewCashier creates an active cashier account with a complete profile
func NewCashier(username, password string, profile CashierProfile) (*User, error) {
	if err := validateProfile(profile); err != nil {
		return nil, err
	}
	user, err := newUser(username, password, RoleCashier)
	if err != nil {
		return nil, err
	}
	user.applyProfile(profile)
	return user, nil
}

func newUser(username, password string, role Role) (*User, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	user := &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Username:          normalizeUsername(username),
		PasswordHash:      passwordHash,
		Role:              role,
		Active:            true,
	}

	user.Raise(NewUserCreatedEvent(user))

	return user, nil
}

// UpdateProfile replaces the cashier's personal fields
func (u *User) UpdateProfile(profile CashierProfile) error {
	if err := validateProfile(profile); err != nil {
		return err
	}
	u.applyProfile(profile)
	u.Touch()
	return nil
}

// ChangeUsername sets a new username; uniqueness is checked by the caller
func (u *User) ChangeUsername(username string) error {
	if err := validateUsername(username); err != nil {
		return err
	}
	u.Username = normalizeUsername(username)
	u.Touch()
	return nil
}

// SetPassword sets a new password (admin reset, no old password check)
func (u *User) SetPassword(newPassword string) error {
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	passwordHash, err := hashPassword(newPassword)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	u.PasswordHash = passwordHash
	u.Touch()

	return nil
}

// VerifyPassword verifies if the provided password matches
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// SetActive activates or deactivates the account
func (u *User) SetActive(active bool) {
	if u.Active == active {
		return
	}
	u.Active = active
	u.Touch()
	if !active {
		u.Raise(NewUserDeactivatedEvent(u))
	}
}

// RecordLoginSuccess records a successful login
func (u *User) RecordLoginSuccess() {
	now := time.Now()
	u.LastLoginAt = &now
	u.UpdatedAt = now
}

// CanLogin reports whether the account may sign in. Admin accounts are never
// deactivated; cashiers can be switched off by an admin.
func (u *User) CanLogin() bool {
	return u.Role == RoleAdmin || u.Active
}

// IsAdmin returns true for admin accounts
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Permissions returns the permission codes granted by the user's role
func (u *User) Permissions() []string {
	return u.Role.Permissions()
}

// FullName returns "First Last" for cashiers and the username otherwise
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

func (u *User) applyProfile(profile CashierProfile) {
	birthday := profile.Birthday
	u.FirstName = strings.TrimSpace(profile.FirstName)
	u.LastName = strings.TrimSpace(profile.LastName)
	u.Birthday = &birthday
	u.PhoneNumber = strings.TrimSpace(profile.PhoneNumber)
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Validation functions

func validateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return shared.NewInvalidRequestError("Username cannot be empty")
	}
	if len(username) < 3 {
		return shared.NewInvalidRequestError("Username must be at least 3 characters")
	}
	if len(username) > 100 {
		return shared.NewInvalidRequestError("Username cannot exceed 100 characters")
	}
	if !usernameRegex.MatchString(username) {
		return shared.NewInvalidRequestError("Username can only contain letters, numbers, underscores, hyphens, and dots")
	}
	return nil
}

// ValidatePassword enforces the password length rules
func ValidatePassword(password string) error {
	if password == "" {
		return shared.NewInvalidRequestError("Password cannot be empty")
	}
	if len(password) < MinPasswordLength {
		return shared.NewInvalidRequestError("Password must be at least 6 characters")
	}
	if len(password) > 72 {
		return shared.NewInvalidRequestError("Password cannot exceed 72 characters")
	}
	return nil
}

func validateProfile(profile CashierProfile) error {
	if strings.TrimSpace(profile.FirstName) == "" || strings.TrimSpace(profile.LastName) == "" {
		return shared.NewInvalidRequestError("First and last name are required")
	}
	if profile.Birthday.IsZero() {
		return shared.NewInvalidRequestError("Birthday is required")
	}
	if profile.Birthday.After(time.Now()) {
		return shared.NewInvalidRequestError("Birthday cannot be in the future")
	}
	phone := strings.TrimSpace(profile.PhoneNumber)
	if phone == "" {
		return shared.NewInvalidRequestError("Phone number is required")
	}
	if len(phone) > 50 {
		return shared.NewInvalidRequestError("Phone number cannot exceed 50 characters")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
