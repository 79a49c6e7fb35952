package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/possale/backend/internal/domain/inventory"
	"github.com/possale/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockLedger creates a GormInventoryLedger with a mocked SQL connection
func newMockLedger(t *testing.T) (*GormInventoryLedger, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormInventoryLedger(gormDB), mock, mockDB
}

func TestGormInventoryLedger_TryDecrement(t *testing.T) {
	ctx := context.Background()

	t.Run("decrements with a single conditional update", func(t *testing.T) {
		ledger, mock, mockDB := newMockLedger(t)
		defer mockDB.Close()

		productID := uuid.New()
		mock.ExpectExec(`UPDATE "products" SET "stock"=stock - \$1 WHERE id = \$2 AND stock >= \$3`).
			WithArgs(int64(2), sqlmock.AnyArg(), int64(2)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, ledger.TryDecrement(ctx, productID, 2))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports available stock when the guard fails", func(t *testing.T) {
		ledger, mock, mockDB := newMockLedger(t)
		defer mockDB.Close()

		productID := uuid.New()
		mock.ExpectExec(`UPDATE "products" SET "stock"=stock - \$1`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT "stock" FROM "products" WHERE id = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"stock"}).AddRow(int64(1)))

		err := ledger.TryDecrement(ctx, productID, 3)
		require.Error(t, err)

		var stockErr *inventory.InsufficientStockError
		require.True(t, errors.As(err, &stockErr))
		assert.Equal(t, productID, stockErr.ProductID)
		assert.Equal(t, int64(1), stockErr.Available)
		assert.Equal(t, int64(3), stockErr.Requested)
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown product", func(t *testing.T) {
		ledger, mock, mockDB := newMockLedger(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "products" SET "stock"=stock - \$1`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT "stock" FROM "products"`).
			WillReturnRows(sqlmock.NewRows([]string{"stock"}))

		err := ledger.TryDecrement(ctx, uuid.New(), 1)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects non-positive quantity without touching the database", func(t *testing.T) {
		ledger, mock, mockDB := newMockLedger(t)
		defer mockDB.Close()

		err := ledger.TryDecrement(ctx, uuid.New(), 0)
		assert.True(t, errors.Is(err, shared.ErrInvalidRequest))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("propagates database errors", func(t *testing.T) {
		ledger, mock, mockDB := newMockLedger(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "products"`).WillReturnError(assert.AnError)

		err := ledger.TryDecrement(ctx, uuid.New(), 1)
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestGormInventoryLedger_Restock(t *testing.T) {
	ctx := context.Background()

	t.Run("adds stock", func(t *testing.T) {
		ledger, mock, mockDB := newMockLedger(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "products" SET "stock"=stock \+ \$1 WHERE id = \$2`).
			WithArgs(int64(5), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, ledger.Restock(ctx, uuid.New(), 5))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown product", func(t *testing.T) {
		ledger, mock, mockDB := newMockLedger(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "products"`).WillReturnResult(sqlmock.NewResult(0, 0))

		err := ledger.Restock(ctx, uuid.New(), 5)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}

func TestGormInventoryLedger_GetStock(t *testing.T) {
	ledger, mock, mockDB := newMockLedger(t)
	defer mockDB.Close()

	mock.ExpectQuery(`SELECT "stock" FROM "products" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"stock"}).AddRow(int64(42)))

	stock, err := ledger.GetStock(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, int64(42), stock)
}
