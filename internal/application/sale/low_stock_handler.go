package sale

import (
	"context"
	"fmt"

	"github.com/possale/backend/internal/domain/inventory"
	"github.com/possale/backend/internal/domain/sale"
	"github.com/possale/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// LowStockAlertHandler handles SaleCompletedEvent and warns about every
// sold product whose stock has dropped to the threshold or below.
type LowStockAlertHandler struct {
	ledger    inventory.Ledger
	threshold int64
	logger    *zap.Logger
}

// NewLowStockAlertHandler creates a LowStockAlertHandler. A threshold of zero
// only reports products that are out of stock.
func NewLowStockAlertHandler(ledger inventory.Ledger, threshold int64, logger *zap.Logger) *LowStockAlertHandler {
	return &LowStockAlertHandler{ledger: ledger, threshold: threshold, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *LowStockAlertHandler) EventTypes() []string {
	return []string{sale.EventTypeSaleCompleted}
}

// Handle processes a SaleCompletedEvent
func (h *LowStockAlertHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	completed, ok := event.(*sale.SaleCompletedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			sale.EventTypeSaleCompleted, event.EventType())
	}

	for _, item := range completed.Items {
		stock, err := h.ledger.GetStock(ctx, item.ProductID)
		if err != nil {
			h.logger.Debug("Skipping stock check",
				zap.String("product_id", item.ProductID.String()),
				zap.Error(err),
			)
			continue
		}
		if stock > h.threshold {
			continue
		}
		h.logger.Warn("Product stock is low",
			zap.String("sale_id", completed.SaleID.String()),
			zap.String("product_id", item.ProductID.String()),
			zap.String("product_name", item.ProductName),
			zap.Int64("stock", stock),
			zap.Int64("threshold", h.threshold),
		)
	}
	return nil
}
