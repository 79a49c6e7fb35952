package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/possale/backend/internal/domain/identity"
	"github.com/possale/backend/internal/domain/shared"
	"github.com/possale/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormUserRepository stores admin and cashier accounts
type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) users(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.UserModel{})
}

// usernameIs matches usernames case-insensitively, ignoring surrounding space
func usernameIs(username string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("LOWER(username) = ?", strings.ToLower(strings.TrimSpace(username)))
	}
}

// firstUser loads one user, reporting a miss as NotFound under key
func firstUser(query *gorm.DB, key string) (*identity.User, error) {
	var row models.UserModel
	err := query.First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.NewNotFoundError("user", key)
	}
	if err != nil {
		return nil, err
	}
	return row.ToDomain(), nil
}

func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	return firstUser(r.users(ctx).Where("id = ?", id), id.String())
}

// FindByIDs returns the users that exist among ids, in no particular order
func (r *GormUserRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*identity.User, error) {
	if len(ids) == 0 {
		return []*identity.User{}, nil
	}
	return r.list(r.users(ctx).Where("id IN ?", ids))
}

func (r *GormUserRepository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	return firstUser(r.users(ctx).Scopes(usernameIs(username)), username)
}

// FindByRole lists the accounts holding role by username
func (r *GormUserRepository) FindByRole(ctx context.Context, role identity.Role) ([]*identity.User, error) {
	return r.list(r.users(ctx).Where("role = ?", string(role)).Order("username ASC"))
}

func (r *GormUserRepository) list(query *gorm.DB) ([]*identity.User, error) {
	var rows []models.UserModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	users := make([]*identity.User, len(rows))
	for i := range rows {
		users[i] = rows[i].ToDomain()
	}
	return users, nil
}

// Save inserts a new account or rewrites every column but created_at of an
// existing one. A username clash surfaces as AlreadyExists.
func (r *GormUserRepository) Save(ctx context.Context, user *identity.User) error {
	row := models.UserModelFromDomain(user)

	var n int64
	if err := r.users(ctx).Where("id = ?", user.ID).Count(&n).Error; err != nil {
		return err
	}

	var err error
	if n == 0 {
		err = r.db.WithContext(ctx).Create(row).Error
	} else {
		err = r.users(ctx).Where("id = ?", user.ID).Select("*").Omit("created_at").Updates(row).Error
	}
	if isUniqueViolation(err) {
		return shared.NewDomainError(shared.CodeAlreadyExists, "Username already exists")
	}
	return err
}

// ExistsByUsername reports whether username is taken by anyone but excludeID
func (r *GormUserRepository) ExistsByUsername(ctx context.Context, username string, excludeID *uuid.UUID) (bool, error) {
	query := r.users(ctx).Scopes(usernameIs(username))
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var n int64
	if err := query.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *GormUserRepository) CountByRole(ctx context.Context, role identity.Role) (int64, error) {
	var n int64
	err := r.users(ctx).Where("role = ?", string(role)).Count(&n).Error
	return n, err
}

var _ identity.UserRepository = (*GormUserRepository)(nil)
