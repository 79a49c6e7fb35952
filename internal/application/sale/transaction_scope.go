package sale

import (
	"context"

	"github.com/possale/backend/internal/domain/catalog"
	"github.com/possale/backend/internal/domain/inventory"
	"github.com/possale/backend/internal/domain/sale"
)

// TransactionScope runs a checkout against one consistent set of repositories.
// If fn returns an error every transactional write made through repos is
// rolled back.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the repositories bound to one scope.
type TransactionalRepositories interface {
	Products() catalog.ProductReader
	Ledger() inventory.Ledger
	Sales() sale.Repository
	// LedgerInTransaction reports whether ledger writes are undone together
	// with the scope. When false the caller must release reservations itself.
	LedgerInTransaction() bool
}

// NoOpTransactionScope runs fn against plain repositories without a
// transaction. Ledger writes are reported as non-transactional.
type NoOpTransactionScope struct {
	products catalog.ProductReader
	ledger   inventory.Ledger
	sales    sale.Repository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope.
func NewNoOpTransactionScope(products catalog.ProductReader, ledger inventory.Ledger, sales sale.Repository) *NoOpTransactionScope {
	return &NoOpTransactionScope{products: products, ledger: ledger, sales: sales}
}

// Execute calls fn directly.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) Products() catalog.ProductReader { return s.products }
func (s *NoOpTransactionScope) Ledger() inventory.Ledger        { return s.ledger }
func (s *NoOpTransactionScope) Sales() sale.Repository          { return s.sales }
func (s *NoOpTransactionScope) LedgerInTransaction() bool       { return false }
