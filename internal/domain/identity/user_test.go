package identity

import (
	"testing"
	"time"

	"github.com/possale/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	bcryptCost = bcrypt.MinCost
}

func validProfile() CashierProfile {
	return CashierProfile{
		FirstName:   "Jane",
		LastName:    "Doe",
		Birthday:    time.Date(1995, 6, 1, 0, 0, 0, 0, time.UTC),
		PhoneNumber: "+62 812 0000 0000",
	}
}

func TestNewAdmin(t *testing.T) {
	user, err := NewAdmin("Admin", "secret1")
	require.NoError(t, err)

	assert.Equal(t, "admin", user.Username)
	assert.Equal(t, RoleAdmin, user.Role)
	assert.True(t, user.Active)
	assert.True(t, user.VerifyPassword("secret1"))
	assert.False(t, user.VerifyPassword("secret2"))
	assert.NotEqual(t, "secret1", user.PasswordHash)

	events := user.PendingEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeUserCreated, events[0].EventType())
}

func TestNewCashier(t *testing.T) {
	t.Run("creates cashier with profile", func(t *testing.T) {
		user, err := NewCashier("jane.doe", "123456", validProfile())
		require.NoError(t, err)

		assert.Equal(t, RoleCashier, user.Role)
		assert.Equal(t, "Jane Doe", user.FullName())
		require.NotNil(t, user.Birthday)
		assert.Equal(t, 1995, user.Birthday.Year())
		assert.True(t, user.CanLogin())
	})

	t.Run("requires profile fields", func(t *testing.T) {
		profile := validProfile()
		profile.PhoneNumber = ""
		_, err := NewCashier("jane.doe", "123456", profile)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Phone number is required")
	})

	t.Run("rejects future birthday", func(t *testing.T) {
		profile := validProfile()
		profile.Birthday = time.Now().Add(48 * time.Hour)
		_, err := NewCashier("jane.doe", "123456", profile)
		require.Error(t, err)
	})
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("abcdef"))

	err := ValidatePassword("abc")
	require.Error(t, err)
	assert.Equal(t, "Password must be at least 6 characters", err.Error())

	domainErr, ok := shared.AsDomainError(ValidatePassword(""))
	require.True(t, ok)
	assert.Equal(t, shared.CodeInvalidRequest, domainErr.Code)
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		username string
		valid    bool
	}{
		{"cashier1", true},
		{"john_doe", true},
		{"a.b-c", true},
		{"ab", false},
		{"", false},
		{"has space", false},
		{"emoji😀", false},
	}
	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			err := validateUsername(tt.username)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestUser_SetActive(t *testing.T) {
	cashier, err := NewCashier("cashier", "123456", validProfile())
	require.NoError(t, err)
	cashier.DiscardEvents()

	cashier.SetActive(false)
	assert.False(t, cashier.CanLogin())
	require.Len(t, cashier.PendingEvents(), 1)
	assert.Equal(t, EventTypeUserDeactivated, cashier.PendingEvents()[0].EventType())

	cashier.SetActive(false)
	assert.Len(t, cashier.PendingEvents(), 1, "no event when status does not change")

	admin, err := NewAdmin("root", "123456")
	require.NoError(t, err)
	admin.Active = false
	assert.True(t, admin.CanLogin(), "admins are never locked out by the active flag")
}

func TestUser_SetPassword(t *testing.T) {
	user, err := NewAdmin("owner", "first-pass")
	require.NoError(t, err)

	require.NoError(t, user.SetPassword("second-pass"))
	assert.True(t, user.VerifyPassword("second-pass"))
	assert.False(t, user.VerifyPassword("first-pass"))
	assert.Equal(t, 2, user.Version)

	assert.Error(t, user.SetPassword("short"))
}

func TestRolePermissions(t *testing.T) {
	assert.True(t, RoleCashier.HasPermission(PermissionSaleCreate))
	assert.False(t, RoleCashier.HasPermission(PermissionSaleRead))
	assert.False(t, RoleCashier.HasPermission(PermissionReportRead))

	assert.True(t, RoleAdmin.HasPermission(PermissionSaleRead))
	assert.True(t, RoleAdmin.HasPermission(PermissionReportRead))
	assert.False(t, RoleAdmin.HasPermission(PermissionSaleCreate))

	assert.True(t, RoleAdmin.IsValid())
	assert.False(t, Role("manager").IsValid())

	perms := RoleCashier.Permissions()
	perms[0] = "tampered"
	assert.Equal(t, PermissionProductRead, RoleCashier.Permissions()[0])
}
