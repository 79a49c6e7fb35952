package persistence

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sortColumns whitelists the order_by values a list endpoint accepts and
// maps them to columns. Anything else falls back to the default column, so
// user input never reaches the ORDER BY clause.
type sortColumns struct {
	allowed  map[string]string
	fallback string
}

var productSort = sortColumns{
	allowed: map[string]string{
		"name":       "name",
		"barcode":    "barcode",
		"price":      "price",
		"stock":      "stock",
		"created_at": "created_at",
		"updated_at": "updated_at",
	},
	fallback: "created_at",
}

// column resolves an order_by value
func (s sortColumns) column(orderBy string) string {
	if col, ok := s.allowed[strings.ToLower(strings.TrimSpace(orderBy))]; ok {
		return col
	}
	return s.fallback
}

// apply orders by the resolved column, descending unless orderDir is "asc",
// with id as the tie breaker so pages are stable.
func (s sortColumns) apply(query *gorm.DB, orderBy, orderDir string) *gorm.DB {
	desc := !strings.EqualFold(strings.TrimSpace(orderDir), "asc")
	return query.Order(clause.OrderByColumn{Column: clause.Column{Name: s.column(orderBy)}, Desc: desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}})
}
