package catalog

import (
	"github.com/google/uuid"
	"github.com/possale/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypeProduct names products as event sources
const AggregateTypeProduct = "Product"

// Product event types
const (
	EventTypeProductCreated      = "ProductCreated"
	EventTypeProductUpdated      = "ProductUpdated"
	EventTypeProductPriceChanged = "ProductPriceChanged"
	EventTypeProductDeleted      = "ProductDeleted"
)

// ProductRef identifies the product an event is about
type ProductRef struct {
	ProductID uuid.UUID `json:"product_id"`
	Barcode   string    `json:"barcode"`
}

func productEvent(kind string, p *Product) (shared.BaseDomainEvent, ProductRef) {
	return shared.NewBaseDomainEvent(kind, AggregateTypeProduct, p.ID), ProductRef{ProductID: p.ID, Barcode: p.Barcode}
}

// ProductCreatedEvent carries the opening stock of a new product
type ProductCreatedEvent struct {
	shared.BaseDomainEvent
	ProductRef
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int64           `json:"stock"`
}

func NewProductCreatedEvent(p *Product) *ProductCreatedEvent {
	e := &ProductCreatedEvent{Name: p.Name, Price: p.Price, Stock: p.Stock}
	e.BaseDomainEvent, e.ProductRef = productEvent(EventTypeProductCreated, p)
	return e
}

// ProductUpdatedEvent follows any edit of name, barcode or price
type ProductUpdatedEvent struct {
	shared.BaseDomainEvent
	ProductRef
	Name string `json:"name"`
}

func NewProductUpdatedEvent(p *Product) *ProductUpdatedEvent {
	e := &ProductUpdatedEvent{Name: p.Name}
	e.BaseDomainEvent, e.ProductRef = productEvent(EventTypeProductUpdated, p)
	return e
}

// ProductPriceChangedEvent is raised in addition to ProductUpdatedEvent
// when the unit price moves. Past sales keep the price they were rung at.
type ProductPriceChangedEvent struct {
	shared.BaseDomainEvent
	ProductRef
	OldPrice decimal.Decimal `json:"old_price"`
	NewPrice decimal.Decimal `json:"new_price"`
}

func NewProductPriceChangedEvent(p *Product, oldPrice decimal.Decimal) *ProductPriceChangedEvent {
	e := &ProductPriceChangedEvent{OldPrice: oldPrice, NewPrice: p.Price}
	e.BaseDomainEvent, e.ProductRef = productEvent(EventTypeProductPriceChanged, p)
	return e
}

// ProductDeletedEvent lets caches drop the product's stock counter
type ProductDeletedEvent struct {
	shared.BaseDomainEvent
	ProductRef
}

func NewProductDeletedEvent(p *Product) *ProductDeletedEvent {
	e := &ProductDeletedEvent{}
	e.BaseDomainEvent, e.ProductRef = productEvent(EventTypeProductDeleted, p)
	return e
}
