package service

import (
	"context"
	"errors"
	"strings"

	"github.com/siteops/alertdesk/internal/auth"
	"github.com/siteops/alertdesk/internal/config"
	"github.com/siteops/alertdesk/internal/domain"
	"github.com/siteops/alertdesk/internal/repository"
	apperrors "github.com/siteops/alertdesk/pkg/util/errorutil"
)

// UserService manages dashboard accounts on behalf of administrators.
type UserService struct {
	users      repository.UserRepository
	bcryptCost int
}

// UserCreateInput describes an account created by an administrator.
type UserCreateInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.UserRole
}

// UserPatch is a partial account update.
type UserPatch struct {
	Name     *string
	Role     *domain.UserRole
	IsActive *bool
}

// NewUserService constructs the service.
func NewUserService(cfg config.AuthConfig, users repository.UserRepository) *UserService {
	return &UserService{users: users, bcryptCost: cfg.BcryptCost}
}

func requireAdmin(actor *domain.User) error {
	if actor == nil || actor.Role != domain.RoleAdmin {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

// Create adds an account with an explicit role.
func (s *UserService) Create(ctx context.Context, actor *domain.User, input UserCreateInput) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	details := map[string]any{}
	if strings.TrimSpace(input.Name) == "" {
		details["name"] = "required"
	}
	if strings.TrimSpace(input.Email) == "" {
		details["email"] = "required"
	}
	if len(input.Password) < auth.MinPasswordLength {
		details["password"] = "too short"
	}
	if !input.Role.Valid() {
		details["role"] = "unknown role"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid user", details)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user := &domain.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: hash,
		Role:         input.Role,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": user.Email})
		}
		return nil, err
	}
	return user, nil
}

// List pages through accounts.
func (s *UserService) List(ctx context.Context, actor *domain.User, filter repository.UserFilter) ([]domain.User, int, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, 0, err
	}
	return s.users.List(ctx, filter)
}

// Get fetches one account.
func (s *UserService) Get(ctx context.Context, actor *domain.User, id string) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return nil, err
	}
	return user, nil
}

// Update changes name, role or active flag. Administrators cannot demote or
// deactivate themselves.
func (s *UserService) Update(ctx context.Context, actor *domain.User, id string, patch UserPatch) (*domain.User, error) {
	user, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return nil, apperrors.NewValidationError("name cannot be empty", map[string]any{"name": "required"})
		}
		user.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Role != nil {
		if !patch.Role.Valid() {
			return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": string(*patch.Role)})
		}
		if user.ID == actor.ID && *patch.Role != domain.RoleAdmin {
			return nil, apperrors.NewConflict("cannot change your own role", nil)
		}
		user.Role = *patch.Role
	}
	if patch.IsActive != nil {
		if user.ID == actor.ID && !*patch.IsActive {
			return nil, apperrors.NewConflict("cannot deactivate yourself", nil)
		}
		user.IsActive = *patch.IsActive
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
