package sale

import (
	"github.com/google/uuid"
	"github.com/possale/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeSale = "Sale"

// Event type constants
const (
	EventTypeSaleCompleted = "SaleCompleted"
)

// SaleCompletedItem is a line of a SaleCompletedEvent
type SaleCompletedItem struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// SaleCompletedEvent is published after a sale has been committed
type SaleCompletedEvent struct {
	shared.BaseDomainEvent
	SaleID uuid.UUID           `json:"sale_id"`
	UserID uuid.UUID           `json:"user_id"`
	Total  decimal.Decimal     `json:"total"`
	Items  []SaleCompletedItem `json:"items"`
}

// NewSaleCompletedEvent creates a new SaleCompletedEvent
func NewSaleCompletedEvent(s *Sale) *SaleCompletedEvent {
	items := make([]SaleCompletedItem, len(s.Items))
	for i, item := range s.Items {
		items[i] = SaleCompletedItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		}
	}
	return &SaleCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCompleted, AggregateTypeSale, s.ID),
		SaleID:          s.ID,
		UserID:          s.UserID,
		Total:           s.Total,
		Items:           items,
	}
}
