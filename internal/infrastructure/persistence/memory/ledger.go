package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/possale/backend/internal/domain/inventory"
	"github.com/possale/backend/internal/domain/shared"
)

// Ledger implements inventory.Ledger on the Store's product stock. The
// check and the decrement happen under the store's write lock.
type Ledger struct {
	store *Store
}

// NewLedger creates a Ledger
func NewLedger(store *Store) *Ledger {
	return &Ledger{store: store}
}

// GetStock returns the current stock of a product
func (l *Ledger) GetStock(_ context.Context, productID uuid.UUID) (int64, error) {
	l.store.mu.RLock()
	defer l.store.mu.RUnlock()

	p, ok := l.store.products[productID]
	if !ok {
		return 0, shared.NewNotFoundError("product", productID.String())
	}
	return p.Stock, nil
}

// TryDecrement subtracts quantity only when enough stock is left
func (l *Ledger) TryDecrement(_ context.Context, productID uuid.UUID, quantity int64) error {
	if err := inventory.ValidateQuantity(quantity); err != nil {
		return err
	}

	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	p, ok := l.store.products[productID]
	if !ok {
		return shared.NewNotFoundError("product", productID.String())
	}
	if p.Stock < quantity {
		return inventory.NewInsufficientStockError(productID, p.Stock, quantity)
	}
	p.Stock -= quantity
	return nil
}

// Restock adds quantity to a product's stock
func (l *Ledger) Restock(_ context.Context, productID uuid.UUID, quantity int64) error {
	if err := inventory.ValidateQuantity(quantity); err != nil {
		return err
	}

	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	p, ok := l.store.products[productID]
	if !ok {
		return shared.NewNotFoundError("product", productID.String())
	}
	p.Stock += quantity
	return nil
}

var _ inventory.Ledger = (*Ledger)(nil)
