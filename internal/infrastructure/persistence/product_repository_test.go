package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/possale/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormProductRepository_CreateAndFind(t *testing.T) {
	repo := NewGormProductRepository(newSQLiteDB(t))
	ctx := context.Background()

	cola := seedProduct(t, repo, "Cola 330ml", "5000112637922", "1.25", 24)

	found, err := repo.FindByID(ctx, cola.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cola 330ml", found.Name)
	assert.True(t, found.Price.Equal(decimal.RequireFromString("1.25")), found.Price.String())
	assert.Equal(t, int64(24), found.Stock)
	assert.Equal(t, 1, found.Version)

	byBarcode, err := repo.FindByBarcode(ctx, " 5000112637922 ")
	require.NoError(t, err)
	assert.Equal(t, cola.ID, byBarcode.ID)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	_, err = repo.FindByBarcode(ctx, "missing")
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	_, err = repo.FindByBarcode(ctx, "  ")
	assert.True(t, errors.Is(err, shared.ErrInvalidRequest))
}

func TestGormProductRepository_DuplicateBarcode(t *testing.T) {
	repo := NewGormProductRepository(newSQLiteDB(t))
	ctx := context.Background()
	seedProduct(t, repo, "Water", "W-1", "0.80", 10)

	exists, err := repo.ExistsByBarcode(ctx, "W-1", nil)
	require.NoError(t, err)
	assert.True(t, exists)

	first, err := repo.FindByBarcode(ctx, "W-1")
	require.NoError(t, err)
	exists, err = repo.ExistsByBarcode(ctx, "W-1", &first.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	dup, err := repo.FindByBarcode(ctx, "W-1")
	require.NoError(t, err)
	dup.ID = uuid.New()
	err = repo.Create(ctx, dup)
	assert.True(t, errors.Is(err, shared.ErrAlreadyExists))
}

func TestGormProductRepository_FindByIDs(t *testing.T) {
	repo := NewGormProductRepository(newSQLiteDB(t))
	a := seedProduct(t, repo, "Apple", "A-1", "0.50", 5)
	b := seedProduct(t, repo, "Banana", "B-1", "0.30", 5)

	products, err := repo.FindByIDs(context.Background(), []uuid.UUID{a.ID, uuid.New(), b.ID})
	require.NoError(t, err)
	assert.Len(t, products, 2)

	none, err := repo.FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGormProductRepository_Update(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewGormProductRepository(db)
	ledger := NewGormInventoryLedger(db)
	ctx := context.Background()

	t.Run("writes fields but never stock", func(t *testing.T) {
		seeded := seedProduct(t, repo, "Bread", "BR-1", "2.00", 10)

		loaded, err := repo.FindByID(ctx, seeded.ID)
		require.NoError(t, err)
		require.NoError(t, ledger.TryDecrement(ctx, seeded.ID, 4))

		require.NoError(t, loaded.Update("Sourdough", "BR-1", decimal.RequireFromString("3.10")))
		require.NoError(t, repo.Update(ctx, loaded))

		found, err := repo.FindByID(ctx, seeded.ID)
		require.NoError(t, err)
		assert.Equal(t, "Sourdough", found.Name)
		assert.True(t, found.Price.Equal(decimal.RequireFromString("3.10")))
		assert.Equal(t, int64(6), found.Stock, "stale in-memory stock must not overwrite the ledger")
		assert.Equal(t, 2, found.Version)
	})

	t.Run("stale version fails", func(t *testing.T) {
		seeded := seedProduct(t, repo, "Milk", "MK-1", "1.00", 10)

		first, err := repo.FindByID(ctx, seeded.ID)
		require.NoError(t, err)
		second, err := repo.FindByID(ctx, seeded.ID)
		require.NoError(t, err)

		require.NoError(t, first.Update("Milk 1L", "MK-1", decimal.RequireFromString("1.10")))
		require.NoError(t, repo.Update(ctx, first))

		require.NoError(t, second.Update("Milk 2L", "MK-1", decimal.RequireFromString("1.90")))
		err = repo.Update(ctx, second)
		assert.True(t, errors.Is(err, shared.ErrOptimisticLockFailed))
	})

	t.Run("missing product", func(t *testing.T) {
		ghost := seedProduct(t, repo, "Ghost", "GH-1", "1.00", 0)
		require.NoError(t, repo.Delete(ctx, ghost.ID))

		require.NoError(t, ghost.Update("Ghost", "GH-1", decimal.RequireFromString("2.00")))
		err := repo.Update(ctx, ghost)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}

func TestGormProductRepository_ListAndCount(t *testing.T) {
	repo := NewGormProductRepository(newSQLiteDB(t))
	ctx := context.Background()
	seedProduct(t, repo, "Green Tea", "TEA-1", "3.00", 3)
	seedProduct(t, repo, "Black Tea", "TEA-2", "2.50", 0)
	seedProduct(t, repo, "Coffee", "COF-1", "4.00", 8)

	filter := shared.Filter{Page: 1, PageSize: 10, OrderBy: "name", OrderDir: "asc", Search: "tea"}
	products, err := repo.FindAll(ctx, filter)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Black Tea", products[0].Name)
	assert.Equal(t, "Green Tea", products[1].Name)

	count, err := repo.Count(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	page2, err := repo.FindAll(ctx, shared.Filter{Page: 2, PageSize: 2, OrderBy: "price", OrderDir: "desc"})
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, "Black Tea", page2[0].Name)

	// unknown sort fields fall back to created_at instead of reaching SQL
	_, err = repo.FindAll(ctx, shared.Filter{Page: 1, PageSize: 10, OrderBy: "name; DROP TABLE products"})
	require.NoError(t, err)

	byBarcode, err := repo.FindAll(ctx, shared.Filter{Page: 1, PageSize: 10, Search: "cof"})
	require.NoError(t, err)
	require.Len(t, byBarcode, 1)

	out, err := repo.CountOutOfStock(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), out)
}

func TestGormProductRepository_Delete(t *testing.T) {
	repo := NewGormProductRepository(newSQLiteDB(t))
	ctx := context.Background()
	p := seedProduct(t, repo, "Chips", "CH-1", "1.50", 2)

	require.NoError(t, repo.Delete(ctx, p.ID))

	_, err := repo.FindByID(ctx, p.ID)
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	err = repo.Delete(ctx, p.ID)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}
