package models

import (
	"github.com/possale/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for the Product domain entity.
// Stock is written only by the inventory ledger and by the initial insert.
type ProductModel struct {
	AggregateModel
	Name     string          `gorm:"type:varchar(200);not null"`
	Barcode  string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_products_barcode"`
	Price    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Stock    int64           `gorm:"not null;default:0;check:chk_products_stock_non_negative,stock >= 0"`
	ImageURL string          `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		Barcode:           m.Barcode,
		Price:             m.Price,
		Stock:             m.Stock,
		ImageURL:          m.ImageURL,
	}
}

// FromDomain populates the persistence model from a domain Product entity.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.Name = p.Name
	m.Barcode = p.Barcode
	m.Price = p.Price
	m.Stock = p.Stock
	m.ImageURL = p.ImageURL
}

// ProductModelFromDomain creates a new persistence model from a domain Product entity.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}
