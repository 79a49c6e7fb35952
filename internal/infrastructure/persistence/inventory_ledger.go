package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/possale/backend/internal/domain/inventory"
	"github.com/possale/backend/internal/domain/shared"
	"github.com/possale/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormInventoryLedger keeps stock in the products.stock column. Every change
// is a single conditional UPDATE, so the database row lock is the only
// synchronization needed between concurrent checkouts.
type GormInventoryLedger struct {
	db *gorm.DB
}

// NewGormInventoryLedger creates a new GormInventoryLedger
func NewGormInventoryLedger(db *gorm.DB) *GormInventoryLedger {
	return &GormInventoryLedger{db: db}
}

// GetStock returns the current stock of a product
func (l *GormInventoryLedger) GetStock(ctx context.Context, productID uuid.UUID) (int64, error) {
	var stocks []int64
	if err := l.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("id = ?", productID).
		Limit(1).
		Pluck("stock", &stocks).Error; err != nil {
		return 0, err
	}
	if len(stocks) == 0 {
		return 0, shared.NewNotFoundError("product", productID.String())
	}
	return stocks[0], nil
}

// TryDecrement subtracts quantity only when enough stock is left
func (l *GormInventoryLedger) TryDecrement(ctx context.Context, productID uuid.UUID, quantity int64) error {
	if err := inventory.ValidateQuantity(quantity); err != nil {
		return err
	}

	result := l.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("id = ? AND stock >= ?", productID, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 1 {
		return nil
	}

	available, err := l.GetStock(ctx, productID)
	if err != nil {
		return err
	}
	return inventory.NewInsufficientStockError(productID, available, quantity)
}

// Restock adds quantity to a product's stock
func (l *GormInventoryLedger) Restock(ctx context.Context, productID uuid.UUID, quantity int64) error {
	if err := inventory.ValidateQuantity(quantity); err != nil {
		return err
	}

	result := l.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("id = ?", productID).
		UpdateColumn("stock", gorm.Expr("stock + ?", quantity))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("product", productID.String())
	}
	return nil
}

var _ inventory.Ledger = (*GormInventoryLedger)(nil)
