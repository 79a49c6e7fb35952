package persistence

import (
	"context"

	appsale "github.com/possale/backend/internal/application/sale"
	"github.com/possale/backend/internal/domain/catalog"
	"github.com/possale/backend/internal/domain/inventory"
	"github.com/possale/backend/internal/domain/sale"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// Product reads and the sale insert always share one transaction. Stock
// changes join it unless an external ledger is configured.
type GormTransactionScope struct {
	db     *gorm.DB
	ledger inventory.Ledger
}

// NewGormTransactionScope creates a scope whose ledger is the products.stock
// column inside the same transaction.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// NewGormTransactionScopeWithLedger creates a scope that reserves stock in an
// external ledger. Those writes are not undone by a rollback.
func NewGormTransactionScopeWithLedger(db *gorm.DB, ledger inventory.Ledger) *GormTransactionScope {
	return &GormTransactionScope{db: db, ledger: ledger}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appsale.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx, ledger: s.ledger})
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx     *gorm.DB
	ledger inventory.Ledger
}

func (r *gormTransactionalRepositories) Products() catalog.ProductReader {
	return NewGormProductRepository(r.tx)
}

func (r *gormTransactionalRepositories) Ledger() inventory.Ledger {
	if r.ledger != nil {
		return r.ledger
	}
	return NewGormInventoryLedger(r.tx)
}

func (r *gormTransactionalRepositories) Sales() sale.Repository {
	return NewGormSaleRepository(r.tx)
}

func (r *gormTransactionalRepositories) LedgerInTransaction() bool {
	return r.ledger == nil
}

// Ensure GormTransactionScope implements TransactionScope
var _ appsale.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appsale.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
