package persistence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	appsale "github.com/possale/backend/internal/application/sale"
	"github.com/possale/backend/internal/domain/identity"
	"github.com/possale/backend/internal/domain/sale"
	"github.com/possale/backend/internal/domain/shared"
	"github.com/possale/backend/internal/infrastructure/migration"
	"github.com/possale/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newPostgresDB starts a postgres container and applies the embedded
// migrations. Skipped with -short or when docker is unavailable.
func newPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("pos_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	m, err := migration.NewFromFS(sqlDB, migrations.FS, nil)
	require.NoError(t, err)
	require.NoError(t, m.Up())

	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.EqualValues(t, 3, version)
	return db
}

func TestPostgres_ConcurrentCheckout(t *testing.T) {
	db := newPostgresDB(t)
	ctx := context.Background()
	products := NewGormProductRepository(db)
	ledger := NewGormInventoryLedger(db)
	sales := NewGormSaleRepository(db)
	processor := appsale.NewProcessor(NewGormTransactionScope(db), nil)

	coffee := seedProduct(t, products, "Coffee Beans", "COF-1", "12.00", 5)
	filters := seedProduct(t, products, "Filters", "FLT-1", "3.50", 100)

	const tills = 12
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		committed int
	)
	for i := 0; i < tills; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := processor.Process(ctx, uuid.New(), sale.Request{Lines: []sale.RequestLine{
				{ProductID: filters.ID, Quantity: 2},
				{ProductID: coffee.ID, Quantity: 1},
			}})
			require.NoError(t, err)
			mu.Lock()
			defer mu.Unlock()
			if result.IsCommitted() {
				committed++
				return
			}
			assert.Equal(t, shared.CodeInsufficientStock, result.Reason.Code)
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, committed)

	stock, err := ledger.GetStock(ctx, coffee.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stock)

	// rejected carts released their filters
	stock, err = ledger.GetStock(ctx, filters.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100-2*5), stock)

	all, err := sales.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 5)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].CreatedAt.Before(all[i-1].CreatedAt))
	}
}

func TestPostgres_RepositoriesAgainstMigratedSchema(t *testing.T) {
	db := newPostgresDB(t)
	ctx := context.Background()

	users := NewGormUserRepository(db)
	admin, err := identity.NewAdmin("boss", "secret1")
	require.NoError(t, err)
	require.NoError(t, users.Save(ctx, admin))

	count, err := users.CountByRole(ctx, identity.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	products := NewGormProductRepository(db)
	milk := seedProduct(t, products, "Milk", "MILK-1", "2.50", 3)

	exists, err := products.ExistsByBarcode(ctx, "MILK-1", nil)
	require.NoError(t, err)
	assert.True(t, exists)

	found, err := products.FindByBarcode(ctx, "MILK-1")
	require.NoError(t, err)
	assert.Equal(t, milk.ID, found.ID)
	assert.True(t, milk.Price.Equal(found.Price))

	require.NoError(t, products.Delete(ctx, milk.ID))
	_, err = products.FindByID(ctx, milk.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
