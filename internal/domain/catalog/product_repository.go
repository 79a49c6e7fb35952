package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/possale/backend/internal/domain/shared"
)

// ProductReader is the read side of the product catalog used by the sale flow
type ProductReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	// FindByIDs returns the products that exist among ids, in no particular order
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Product, error)
}

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	ProductReader

	FindByBarcode(ctx context.Context, barcode string) (*Product, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]*Product, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Create inserts a new product including its opening stock
	Create(ctx context.Context, product *Product) error
	// Update persists descriptive fields and price using optimistic locking.
	// Stock is never written by Update.
	Update(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id uuid.UUID) error

	ExistsByBarcode(ctx context.Context, barcode string, excludeID *uuid.UUID) (bool, error)
}
