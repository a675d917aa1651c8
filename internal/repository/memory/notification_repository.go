package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/siteops/alertdesk/internal/domain"
	"github.com/siteops/alertdesk/internal/repository"
)

// NotificationRepository stores notifications in memory.
type NotificationRepository struct {
	mu    sync.RWMutex
	items map[string]domain.Notification
	order []string
}

// NewNotificationRepository returns an empty store.
func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{items: make(map[string]domain.Notification)}
}

var _ repository.NotificationRepository = (*NotificationRepository)(nil)

func (r *NotificationRepository) Create(_ context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n.ID = uuid.NewString()
	n.CreatedAt = now()
	r.items[n.ID] = *n
	r.order = append(r.order, n.ID)
	return nil
}

func (r *NotificationRepository) UpdateStatus(_ context.Context, id string, status domain.NotificationStatus, at *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.items[id]
	if !ok {
		return errNotFound
	}
	n.Status = status
	if at != nil {
		n.SentAt = cloneTime(at)
	}
	r.items[id] = n
	return nil
}

func (r *NotificationRepository) MarkRead(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.items[id]
	if !ok {
		return errNotFound
	}
	n.Status = domain.NotificationRead
	n.ReadAt = &at
	r.items[id] = n
	return nil
}

func (r *NotificationRepository) GetByID(_ context.Context, id string) (*domain.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.items[id]
	if !ok {
		return nil, errNotFound
	}
	return &n, nil
}

// List returns the user's notifications, newest first.
func (r *NotificationRepository) List(_ context.Context, filter repository.NotificationFilter) ([]domain.Notification, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []domain.Notification
	for i := len(r.order) - 1; i >= 0; i-- {
		n := r.items[r.order[i]]
		if n.UserID != filter.UserID {
			continue
		}
		if filter.Status != nil && n.Status != *filter.Status {
			continue
		}
		if filter.Type != nil && n.Type != *filter.Type {
			continue
		}
		matched = append(matched, n)
	}
	return page(matched, filter.Limit, filter.Offset), len(matched), nil
}
