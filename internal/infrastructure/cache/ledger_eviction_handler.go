package cache

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/possale/backend/internal/domain/catalog"
	"github.com/possale/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Evicter drops cached stock for a product
type Evicter interface {
	Evict(ctx context.Context, productID uuid.UUID) error
}

// LedgerEvictionHandler removes the stock counter of deleted products
type LedgerEvictionHandler struct {
	ledger Evicter
	logger *zap.Logger
}

// NewLedgerEvictionHandler creates a LedgerEvictionHandler
func NewLedgerEvictionHandler(ledger Evicter, logger *zap.Logger) *LedgerEvictionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerEvictionHandler{ledger: ledger, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *LedgerEvictionHandler) EventTypes() []string {
	return []string{catalog.EventTypeProductDeleted}
}

// Handle processes a ProductDeletedEvent
func (h *LedgerEvictionHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	deleted, ok := event.(*catalog.ProductDeletedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			catalog.EventTypeProductDeleted, event.EventType())
	}
	if err := h.ledger.Evict(ctx, deleted.ProductID); err != nil {
		return err
	}
	h.logger.Debug("Stock counter evicted", zap.String("product_id", deleted.ProductID.String()))
	return nil
}

var _ shared.EventHandler = (*LedgerEvictionHandler)(nil)
