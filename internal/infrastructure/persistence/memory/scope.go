package memory

import (
	appsale "github.com/possale/backend/internal/application/sale"
)

// NewTransactionScope returns a checkout scope over the store. The ledger is
// not transactional, so the processor releases reservations itself when the
// sale cannot be appended.
func NewTransactionScope(store *Store) *appsale.NoOpTransactionScope {
	return appsale.NewNoOpTransactionScope(
		NewProductRepository(store),
		NewLedger(store),
		NewSaleRepository(store),
	)
}
