package identity

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/possale/backend/internal/domain/identity"
	"github.com/possale/backend/internal/domain/shared"
	"github.com/possale/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// UserService handles account registration and cashier management
type UserService struct {
	userRepo       identity.UserRepository
	blacklist      auth.TokenBlacklist
	revokeFor      time.Duration
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewUserService creates a new user service. When a cashier is deactivated,
// tokens issued to them are revoked for revokeFor, which should cover the
// refresh token lifetime.
func NewUserService(
	userRepo identity.UserRepository,
	blacklist auth.TokenBlacklist,
	revokeFor time.Duration,
	logger *zap.Logger,
) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		userRepo:  userRepo,
		blacklist: blacklist,
		revokeFor: revokeFor,
		logger:    logger,
	}
}

// SetEventPublisher sets the event publisher for user events
func (s *UserService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// RegisterAdmin creates the first admin account. Once an admin exists the
// endpoint is closed.
func (s *UserService) RegisterAdmin(ctx context.Context, input RegisterAdminInput) (*UserDTO, error) {
	admins, err := s.userRepo.CountByRole(ctx, identity.RoleAdmin)
	if err != nil {
		return nil, shared.NewStorageUnavailableError(err)
	}
	if admins > 0 {
		return nil, shared.NewDomainError(shared.CodeForbidden, "An admin account already exists")
	}

	user, err := identity.NewAdmin(input.Username, input.Password)
	if err != nil {
		return nil, err
	}
	if err := s.create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("Admin account created", zap.String("user_id", user.ID.String()))
	dto := ToUserDTO(user)
	return &dto, nil
}

// RegisterCashier creates an active cashier account
func (s *UserService) RegisterCashier(ctx context.Context, input RegisterCashierInput) (*UserDTO, error) {
	user, err := identity.NewCashier(input.Username, input.Password, identity.CashierProfile{
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Birthday:    input.Birthday,
		PhoneNumber: input.PhoneNumber,
	})
	if err != nil {
		return nil, err
	}
	if err := s.create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("Cashier account created",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
	)
	dto := ToUserDTO(user)
	return &dto, nil
}

// ListCashiers returns every cashier account
func (s *UserService) ListCashiers(ctx context.Context) ([]UserDTO, error) {
	users, err := s.userRepo.FindByRole(ctx, identity.RoleCashier)
	if err != nil {
		return nil, shared.NewStorageUnavailableError(err)
	}
	out := make([]UserDTO, 0, len(users))
	for _, u := range users {
		out = append(out, ToUserDTO(u))
	}
	return out, nil
}

// UpdateCashier edits a cashier's profile, credentials and active flag
func (s *UserService) UpdateCashier(ctx context.Context, id uuid.UUID, input UpdateCashierInput) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role != identity.RoleCashier {
		return nil, shared.NewNotFoundError("user", id.String())
	}

	if input.Username != nil && strings.ToLower(strings.TrimSpace(*input.Username)) != user.Username {
		if err := s.ensureUsernameFree(ctx, *input.Username, &id); err != nil {
			return nil, err
		}
		if err := user.ChangeUsername(*input.Username); err != nil {
			return nil, err
		}
	}

	if input.FirstName != nil || input.LastName != nil || input.Birthday != nil || input.PhoneNumber != nil {
		if err := user.UpdateProfile(mergeProfile(user, input)); err != nil {
			return nil, err
		}
	}

	if input.Password != nil && strings.TrimSpace(*input.Password) != "" {
		if err := user.SetPassword(*input.Password); err != nil {
			return nil, err
		}
	}

	deactivated := false
	if input.IsActive != nil {
		deactivated = user.Active && !*input.IsActive
		user.SetActive(*input.IsActive)
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, shared.NewStorageUnavailableError(err)
	}

	if deactivated && s.blacklist != nil {
		if err := s.blacklist.AddUserTokensToBlacklist(ctx, user.ID.String(), s.revokeFor); err != nil {
			s.logger.Error("Failed to revoke tokens of deactivated cashier",
				zap.String("user_id", user.ID.String()),
				zap.Error(err),
			)
		}
	}
	s.publish(ctx, user)

	s.logger.Info("Cashier account updated",
		zap.String("user_id", user.ID.String()),
		zap.Bool("active", user.Active),
	)
	dto := ToUserDTO(user)
	return &dto, nil
}

// GetByID returns one user
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := ToUserDTO(user)
	return &dto, nil
}

func (s *UserService) create(ctx context.Context, user *identity.User) error {
	if err := s.ensureUsernameFree(ctx, user.Username, nil); err != nil {
		return err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return shared.NewStorageUnavailableError(err)
	}
	s.publish(ctx, user)
	return nil
}

func (s *UserService) ensureUsernameFree(ctx context.Context, username string, excludeID *uuid.UUID) error {
	exists, err := s.userRepo.ExistsByUsername(ctx, strings.ToLower(strings.TrimSpace(username)), excludeID)
	if err != nil {
		return shared.NewStorageUnavailableError(err)
	}
	if exists {
		return shared.NewDomainError(shared.CodeAlreadyExists, "Username already exists")
	}
	return nil
}

func (s *UserService) publish(ctx context.Context, user *identity.User) {
	events := user.PullEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish user events",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
	}
}

func mergeProfile(user *identity.User, input UpdateCashierInput) identity.CashierProfile {
	profile := identity.CashierProfile{
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		PhoneNumber: user.PhoneNumber,
	}
	if user.Birthday != nil {
		profile.Birthday = *user.Birthday
	}
	if input.FirstName != nil {
		profile.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		profile.LastName = *input.LastName
	}
	if input.Birthday != nil {
		profile.Birthday = *input.Birthday
	}
	if input.PhoneNumber != nil {
		profile.PhoneNumber = *input.PhoneNumber
	}
	return profile
}
