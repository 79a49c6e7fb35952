package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/possale/backend/internal/domain/identity"
	"github.com/possale/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCashier(t *testing.T, username string) *identity.User {
	t.Helper()
	u, err := identity.NewCashier(username, "secret1", identity.CashierProfile{
		FirstName:   "Grace",
		LastName:    "Hopper",
		Birthday:    time.Date(1985, 12, 9, 0, 0, 0, 0, time.UTC),
		PhoneNumber: "555-0101",
	})
	require.NoError(t, err)
	return u
}

func TestGormUserRepository_SaveAndFind(t *testing.T) {
	repo := NewGormUserRepository(newSQLiteDB(t))
	ctx := context.Background()

	grace := newTestCashier(t, "grace")
	require.NoError(t, repo.Save(ctx, grace))

	found, err := repo.FindByUsername(ctx, "GRACE")
	require.NoError(t, err)
	assert.Equal(t, grace.ID, found.ID)
	assert.Equal(t, identity.RoleCashier, found.Role)
	assert.True(t, found.Active)
	assert.True(t, found.VerifyPassword("secret1"))
	require.NotNil(t, found.Birthday)
	assert.Equal(t, 1985, found.Birthday.Year())

	_, err = repo.FindByUsername(ctx, "nobody")
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	_, err = repo.FindByID(ctx, uuid.New())
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestGormUserRepository_SaveUpdatesExisting(t *testing.T) {
	repo := NewGormUserRepository(newSQLiteDB(t))
	ctx := context.Background()

	grace := newTestCashier(t, "grace")
	require.NoError(t, repo.Save(ctx, grace))

	grace.SetActive(false)
	grace.RecordLoginSuccess()
	require.NoError(t, repo.Save(ctx, grace))

	found, err := repo.FindByID(ctx, grace.ID)
	require.NoError(t, err)
	assert.False(t, found.Active)
	assert.NotNil(t, found.LastLoginAt)

	count, err := repo.CountByRole(ctx, identity.RoleCashier)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestGormUserRepository_UsernameUniqueness(t *testing.T) {
	repo := NewGormUserRepository(newSQLiteDB(t))
	ctx := context.Background()

	grace := newTestCashier(t, "grace")
	require.NoError(t, repo.Save(ctx, grace))

	exists, err := repo.ExistsByUsername(ctx, "Grace", nil)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByUsername(ctx, "grace", &grace.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	err = repo.Save(ctx, newTestCashier(t, "grace"))
	assert.True(t, errors.Is(err, shared.ErrAlreadyExists))
}

func TestGormUserRepository_FindByRoleAndIDs(t *testing.T) {
	repo := NewGormUserRepository(newSQLiteDB(t))
	ctx := context.Background()

	zed := newTestCashier(t, "zed")
	amy := newTestCashier(t, "amy")
	admin, err := identity.NewAdmin("boss", "secret1")
	require.NoError(t, err)
	for _, u := range []*identity.User{zed, amy, admin} {
		require.NoError(t, repo.Save(ctx, u))
	}

	cashiers, err := repo.FindByRole(ctx, identity.RoleCashier)
	require.NoError(t, err)
	require.Len(t, cashiers, 2)
	assert.Equal(t, "amy", cashiers[0].Username)
	assert.Equal(t, "zed", cashiers[1].Username)

	admins, err := repo.CountByRole(ctx, identity.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), admins)

	users, err := repo.FindByIDs(ctx, []uuid.UUID{zed.ID, admin.ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
