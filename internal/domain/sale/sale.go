// Package sale models committed point-of-sale transactions.
// A Sale is append-only: once built it is never mutated or deleted.
package sale

import (
	"time"

	"github.com/google/uuid"
	"github.com/possale/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// LineItem is one product line of a sale with the price captured at validation time
type LineItem struct {
	ID          uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Quantity    int64
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
	Position    int
}

// Sale is the aggregate root of a completed checkout
type Sale struct {
	shared.BaseAggregateRoot
	UserID uuid.UUID
	Items  []LineItem
	Total  decimal.Decimal
}

// PricedLine is a validated cart line with its captured unit price
type PricedLine struct {
	ProductID   uuid.UUID
	ProductName string
	Quantity    int64
	UnitPrice   decimal.Decimal
}

// NewSale builds a sale from priced lines. The total is always the sum of
// unit price × quantity over the lines, in cart order.
func NewSale(userID uuid.UUID, lines []PricedLine, createdAt time.Time) (*Sale, error) {
	if userID == uuid.Nil {
		return nil, shared.NewInvalidRequestError("Sale requires a cashier")
	}
	if len(lines) == 0 {
		return nil, shared.NewInvalidRequestError("Sale must contain at least one item")
	}

	s := &Sale{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		Items:             make([]LineItem, 0, len(lines)),
		Total:             decimal.Zero,
	}
	s.CreatedAt = createdAt
	s.UpdatedAt = createdAt

	for i, line := range lines {
		if line.Quantity <= 0 {
			return nil, shared.NewInvalidRequestError("Quantity must be greater than zero")
		}
		if line.UnitPrice.IsNegative() {
			return nil, shared.NewInvalidRequestError("Unit price cannot be negative")
		}
		lineTotal := line.UnitPrice.Mul(decimal.NewFromInt(line.Quantity))
		s.Items = append(s.Items, LineItem{
			ID:          uuid.New(),
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			LineTotal:   lineTotal,
			Position:    i,
		})
		s.Total = s.Total.Add(lineTotal)
	}

	s.Raise(NewSaleCompletedEvent(s))

	return s, nil
}

// ItemCount returns the total number of units sold
func (s *Sale) ItemCount() int64 {
	var n int64
	for _, item := range s.Items {
		n += item.Quantity
	}
	return n
}

// ProductIDs returns the distinct product IDs in cart order
func (s *Sale) ProductIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.Items))
	for _, item := range s.Items {
		ids = append(ids, item.ProductID)
	}
	return ids
}
