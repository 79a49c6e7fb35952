package identity

import (
	"github.com/possale/backend/internal/domain/shared"
)

// AggregateTypeUser names users as event sources
const AggregateTypeUser = "User"

// User event types
const (
	EventTypeUserCreated     = "UserCreated"
	EventTypeUserDeactivated = "UserDeactivated"
)

// UserCreatedEvent records a new till or back-office account
type UserCreatedEvent struct {
	shared.BaseDomainEvent
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

func NewUserCreatedEvent(u *User) *UserCreatedEvent {
	return &UserCreatedEvent{
		BaseDomainEvent: userEvent(EventTypeUserCreated, u),
		Username:        u.Username,
		Role:            u.Role,
	}
}

// UserDeactivatedEvent records that an account can no longer sign in
type UserDeactivatedEvent struct {
	shared.BaseDomainEvent
	Username string `json:"username"`
}

func NewUserDeactivatedEvent(u *User) *UserDeactivatedEvent {
	return &UserDeactivatedEvent{
		BaseDomainEvent: userEvent(EventTypeUserDeactivated, u),
		Username:        u.Username,
	}
}

func userEvent(kind string, u *User) shared.BaseDomainEvent {
	return shared.NewBaseDomainEvent(kind, AggregateTypeUser, u.ID)
}
