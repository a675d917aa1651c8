package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/siteops/alertdesk/internal/domain"
	"github.com/siteops/alertdesk/internal/repository"
)

// UserRepository is an in-memory repository.UserRepository.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

// NewUserRepository returns an empty store.
func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]domain.User)}
}

var _ repository.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user.Email = strings.ToLower(user.Email)
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return repository.ErrConflict
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = *user
	return nil
}

func (r *UserRepository) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return errNotFound
	}
	user.Email = strings.ToLower(user.Email)
	for id, existing := range r.users {
		if id != user.ID && existing.Email == user.Email {
			return repository.ErrConflict
		}
	}
	user.UpdatedAt = now()
	r.users[user.ID] = *user
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, errNotFound
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email = strings.ToLower(email)
	for _, user := range r.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, errNotFound
}

func (r *UserRepository) ListActiveByRoles(_ context.Context, roles []domain.UserRole) ([]domain.User, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.User
	for _, user := range r.users {
		if user.IsActive && contains(roles, user.Role) {
			result = append(result, user)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *UserRepository) List(_ context.Context, filter repository.UserFilter) ([]domain.User, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search := ""
	if filter.SearchTerm != nil {
		search = strings.ToLower(strings.TrimSpace(*filter.SearchTerm))
	}
	var matched []domain.User
	for _, user := range r.users {
		if !contains(filter.Roles, user.Role) {
			continue
		}
		if filter.Active != nil && user.IsActive != *filter.Active {
			continue
		}
		if search != "" && !containsFold(user.Name, search) && !containsFold(user.Email, search) {
			continue
		}
		matched = append(matched, user)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	return page(matched, filter.Limit, filter.Offset), len(matched), nil
}
