package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByRole(ctx context.Context, role Role) ([]*User, error)

	// Save creates or updates a user
	Save(ctx context.Context, user *User) error

	ExistsByUsername(ctx context.Context, username string, excludeID *uuid.UUID) (bool, error)
	CountByRole(ctx context.Context, role Role) (int64, error)
}
