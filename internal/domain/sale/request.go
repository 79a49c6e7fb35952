package sale

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/possale/backend/internal/domain/shared"
)

// RequestLine is one requested (product, quantity) pair
type RequestLine struct {
	ProductID uuid.UUID
	Quantity  int64
}

// Request is a strongly-typed cart submitted for checkout
type Request struct {
	Lines []RequestLine
}

// Validate rejects empty carts, non-positive quantities and duplicate
// product lines. Duplicates are rejected rather than summed.
func (r Request) Validate() error {
	if len(r.Lines) == 0 {
		return shared.NewInvalidRequestError("Cart must contain at least one product")
	}

	seen := make(map[uuid.UUID]int, len(r.Lines))
	for i, line := range r.Lines {
		if line.ProductID == uuid.Nil {
			return shared.NewInvalidRequestError(fmt.Sprintf("Line %d: product id is required", i+1)).
				WithDetail("line", i+1)
		}
		if line.Quantity <= 0 {
			return shared.NewInvalidRequestError(fmt.Sprintf("Line %d: quantity must be greater than zero", i+1)).
				WithDetail("line", i+1).
				WithDetail("product_id", line.ProductID.String())
		}
		if first, dup := seen[line.ProductID]; dup {
			return shared.NewInvalidRequestError(fmt.Sprintf("Product %s appears on lines %d and %d", line.ProductID, first+1, i+1)).
				WithDetail("product_id", line.ProductID.String())
		}
		seen[line.ProductID] = i
	}
	return nil
}

// ProductIDs returns the requested product IDs in cart order
func (r Request) ProductIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(r.Lines))
	for _, line := range r.Lines {
		ids = append(ids, line.ProductID)
	}
	return ids
}
