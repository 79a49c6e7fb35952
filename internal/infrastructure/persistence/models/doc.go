// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free
// from ORM concerns.
//
// Structure:
// - base.go: BaseModel and AggregateModel
// - product.go: products, including the stock column owned by the inventory ledger
// - sale.go: sales and their line items (append-only)
// - user.go: admin and cashier accounts
package models
