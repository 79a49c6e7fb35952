package models

import (
	"github.com/google/uuid"
	"github.com/possale/backend/internal/domain/sale"
	"github.com/shopspring/decimal"
)

// SaleModel is the persistence model for a committed sale.
// Rows are inserted once and never updated.
type SaleModel struct {
	BaseModel
	UserID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Total  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Items  []SaleItemModel `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// SaleItemModel is one line of a sale. ProductID deliberately has no foreign
// key: products can be deleted while their sales remain.
type SaleItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	SaleID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	Quantity    int64           `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Position    int             `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (SaleItemModel) TableName() string {
	return "sale_items"
}

// ToDomain converts the persistence model to a domain Sale
func (m *SaleModel) ToDomain() *sale.Sale {
	s := &sale.Sale{
		UserID: m.UserID,
		Total:  m.Total,
		Items:  make([]sale.LineItem, 0, len(m.Items)),
	}
	s.BaseEntity = m.BaseModel.ToDomain()
	s.Version = 1
	for _, item := range m.Items {
		s.Items = append(s.Items, sale.LineItem{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
			Position:    item.Position,
		})
	}
	return s
}

// SaleModelFromDomain creates a persistence model, with its items, from a domain Sale
func SaleModelFromDomain(s *sale.Sale) *SaleModel {
	m := &SaleModel{
		UserID: s.UserID,
		Total:  s.Total,
		Items:  make([]SaleItemModel, 0, len(s.Items)),
	}
	m.FromDomainBaseEntity(s.BaseEntity)
	for _, item := range s.Items {
		m.Items = append(m.Items, SaleItemModel{
			ID:          item.ID,
			SaleID:      s.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
			Position:    item.Position,
		})
	}
	return m
}
