package shared

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact recorded by an aggregate and delivered through the
// EventBus once the surrounding transaction has committed.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	AggregateType() string
}

// BaseDomainEvent is embedded by concrete events to satisfy DomainEvent
type BaseDomainEvent struct {
	Event      uuid.UUID `json:"event_id"`
	Kind       string    `json:"event_type"`
	At         time.Time `json:"occurred_at"`
	Source     uuid.UUID `json:"aggregate_id"`
	SourceKind string    `json:"aggregate_type"`
}

// NewBaseDomainEvent stamps a new event of kind raised by the aggregate
// sourceKind/source
func NewBaseDomainEvent(kind, sourceKind string, source uuid.UUID) BaseDomainEvent {
	return BaseDomainEvent{
		Event:      uuid.New(),
		Kind:       kind,
		At:         time.Now().UTC(),
		Source:     source,
		SourceKind: sourceKind,
	}
}

func (e *BaseDomainEvent) EventID() uuid.UUID     { return e.Event }
func (e *BaseDomainEvent) EventType() string      { return e.Kind }
func (e *BaseDomainEvent) OccurredAt() time.Time  { return e.At }
func (e *BaseDomainEvent) AggregateID() uuid.UUID { return e.Source }
func (e *BaseDomainEvent) AggregateType() string  { return e.SourceKind }
