package persistence

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/possale/backend/internal/domain/catalog"
	"github.com/possale/backend/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newSQLiteDB opens a migrated file-backed sqlite database in a temp dir
func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := NewDatabaseWithLogger(&config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "pos.db"),
	}, gormlogger.Default.LogMode(gormlogger.Silent))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })

	return db.DB
}

// seedProduct stores a product with the given price and opening stock
func seedProduct(t *testing.T, repo *GormProductRepository, name, barcode, price string, stock int64) *catalog.Product {
	t.Helper()

	product, err := catalog.NewProduct(name, barcode, decimal.RequireFromString(price), stock)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), product))
	product.DiscardEvents()
	return product
}
