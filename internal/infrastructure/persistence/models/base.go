package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/possale/backend/internal/domain/shared"
)

// Timestamps are written in UTC so sqlite text comparisons and postgres
// timestamptz agree on window bounds.

// BaseModel holds the id and timestamp columns every table shares
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain returns the entity part of a row
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt.UTC(), UpdatedAt: m.UpdatedAt.UTC()}
}

// FromDomainBaseEntity copies identity and timestamps into the row
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt.UTC()
	m.UpdatedAt = e.UpdatedAt.UTC()
}

// AggregateModel adds the version column checked by optimistic locking on
// products and users. Sales are append-only and use BaseModel alone.
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

// FromDomainAggregateRoot copies the aggregate header into the row
func (m *AggregateModel) FromDomainAggregateRoot(a shared.BaseAggregateRoot) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.Version = a.Version
}

// ToDomainAggregateRoot rebuilds the aggregate header with no queued events
func (m *AggregateModel) ToDomainAggregateRoot() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{BaseEntity: m.BaseModel.ToDomain(), Version: m.Version}
}

// All lists the models AutoMigrate creates, parents before children
func All() []any {
	return []any{&ProductModel{}, &UserModel{}, &SaleModel{}, &SaleItemModel{}}
}
