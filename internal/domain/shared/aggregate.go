package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries identity and timestamps
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity returns an entity with a fresh ID stamped now
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

// BaseAggregateRoot adds the optimistic-lock version and the events raised
// since the aggregate was loaded. Products, users and sales embed it.
type BaseAggregateRoot struct {
	BaseEntity
	Version int
	pending []DomainEvent
}

// NewBaseAggregateRoot starts a new aggregate at version 1
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: NewBaseEntity(), Version: 1}
}

// Touch records a user-visible change: UpdatedAt moves to now and the
// version advances. Stock moves go through the ledger and never touch.
func (a *BaseAggregateRoot) Touch() {
	a.UpdatedAt = time.Now()
	a.Version++
}

// Raise queues event until the change is committed
func (a *BaseAggregateRoot) Raise(event DomainEvent) {
	a.pending = append(a.pending, event)
}

// PendingEvents returns the queued events without removing them
func (a *BaseAggregateRoot) PendingEvents() []DomainEvent {
	return a.pending
}

// PullEvents hands over the queued events for publication and forgets them
func (a *BaseAggregateRoot) PullEvents() []DomainEvent {
	events := a.pending
	a.pending = nil
	return events
}

// DiscardEvents drops the queued events, e.g. when a copy is stored
func (a *BaseAggregateRoot) DiscardEvents() {
	a.pending = nil
}
