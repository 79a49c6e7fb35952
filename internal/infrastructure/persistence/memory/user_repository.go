package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/possale/backend/internal/domain/identity"
	"github.com/possale/backend/internal/domain/shared"
)

// UserRepository implements identity.UserRepository on a Store
type UserRepository struct {
	store *Store
}

// NewUserRepository creates a UserRepository
func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

// FindByID finds a user by ID
func (r *UserRepository) FindByID(_ context.Context, id uuid.UUID) (*identity.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	u, ok := r.store.users[id]
	if !ok {
		return nil, shared.NewNotFoundError("user", id.String())
	}
	return cloneUser(u), nil
}

// FindByIDs finds the users that exist among ids
func (r *UserRepository) FindByIDs(_ context.Context, ids []uuid.UUID) ([]*identity.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]*identity.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.store.users[id]; ok {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

// FindByUsername finds a user by username, case-insensitively
func (r *UserRepository) FindByUsername(_ context.Context, username string) (*identity.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if u := r.byUsername(username); u != nil {
		return cloneUser(u), nil
	}
	return nil, shared.NewNotFoundError("user", username)
}

// FindByRole returns every user with role, ordered by username
func (r *UserRepository) FindByRole(_ context.Context, role identity.Role) ([]*identity.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]*identity.User, 0)
	for _, u := range r.store.users {
		if u.Role == role {
			out = append(out, cloneUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// Save creates or replaces a user
func (r *UserRepository) Save(_ context.Context, user *identity.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if existing := r.byUsername(user.Username); existing != nil && existing.ID != user.ID {
		return shared.NewDomainError(shared.CodeAlreadyExists, "Username already exists")
	}
	r.store.users[user.ID] = cloneUser(user)
	return nil
}

// ExistsByUsername checks if a username is taken, optionally ignoring one user
func (r *UserRepository) ExistsByUsername(_ context.Context, username string, excludeID *uuid.UUID) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	u := r.byUsername(username)
	if u == nil {
		return false, nil
	}
	return excludeID == nil || u.ID != *excludeID, nil
}

// CountByRole counts users with role
func (r *UserRepository) CountByRole(_ context.Context, role identity.Role) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var n int64
	for _, u := range r.store.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

// byUsername must be called with the store lock held
func (r *UserRepository) byUsername(username string) *identity.User {
	username = strings.ToLower(strings.TrimSpace(username))
	for _, u := range r.store.users {
		if strings.ToLower(u.Username) == username {
			return u
		}
	}
	return nil
}

var _ identity.UserRepository = (*UserRepository)(nil)
