// Package inventory holds the stock ledger abstraction and the multi-line
// reservation rules applied on top of it.
package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/possale/backend/internal/domain/shared"
)

// Ledger is the single source of truth for per-product stock.
// Implementations must make TryDecrement one atomic check-and-decrement so that
// concurrent callers for the same product never drive stock negative.
type Ledger interface {
	// GetStock returns the current stock, or a NOT_FOUND error for unknown products
	GetStock(ctx context.Context, productID uuid.UUID) (int64, error)

	// TryDecrement reduces stock by quantity if and only if stock >= quantity.
	// It returns *InsufficientStockError when the product has too little stock.
	TryDecrement(ctx context.Context, productID uuid.UUID, quantity int64) error

	// Restock increases stock by quantity
	Restock(ctx context.Context, productID uuid.UUID, quantity int64) error
}

// InsufficientStockError reports a line that could not be covered by stock
type InsufficientStockError struct {
	ProductID   uuid.UUID
	ProductName string
	Available   int64
	Requested   int64
}

// Error implements the error interface
func (e *InsufficientStockError) Error() string {
	name := e.ProductName
	if name == "" {
		name = e.ProductID.String()
	}
	return fmt.Sprintf("Insufficient stock for %s: available %d, requested %d", name, e.Available, e.Requested)
}

// Is lets errors.Is(err, shared.ErrInsufficientStock) match
func (e *InsufficientStockError) Is(target error) bool {
	return target == shared.ErrInsufficientStock
}

// DomainError converts the failure into the shared error shape used by the HTTP layer
func (e *InsufficientStockError) DomainError() *shared.DomainError {
	return &shared.DomainError{
		Code:    shared.CodeInsufficientStock,
		Message: e.Error(),
		Details: map[string]any{
			"product_id": e.ProductID.String(),
			"available":  e.Available,
			"requested":  e.Requested,
		},
		Cause: e,
	}
}

// NewInsufficientStockError creates an InsufficientStockError
func NewInsufficientStockError(productID uuid.UUID, available, requested int64) *InsufficientStockError {
	return &InsufficientStockError{
		ProductID: productID,
		Available: available,
		Requested: requested,
	}
}

// ValidateQuantity rejects non-positive quantities
func ValidateQuantity(quantity int64) error {
	if quantity <= 0 {
		return shared.NewInvalidRequestError("Quantity must be greater than zero")
	}
	return nil
}
