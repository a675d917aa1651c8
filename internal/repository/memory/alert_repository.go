package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/siteops/alertdesk/internal/domain"
	"github.com/siteops/alertdesk/internal/repository"
)

// AlertRepository is an in-memory repository.AlertRepository.
type AlertRepository struct {
	mu     sync.RWMutex
	alerts map[string]domain.Alert
	order  []string
}

// NewAlertRepository returns an empty store.
func NewAlertRepository() *AlertRepository {
	return &AlertRepository{alerts: make(map[string]domain.Alert)}
}

var _ repository.AlertRepository = (*AlertRepository)(nil)

func (r *AlertRepository) Create(_ context.Context, alert *domain.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	alert.ID = uuid.NewString()
	alert.CreatedAt = now()
	alert.UpdatedAt = alert.CreatedAt
	r.alerts[alert.ID] = *alert
	r.order = append(r.order, alert.ID)
	return nil
}

func (r *AlertRepository) Update(_ context.Context, alert *domain.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.alerts[alert.ID]; !ok {
		return errNotFound
	}
	alert.UpdatedAt = now()
	r.alerts[alert.ID] = *alert
	return nil
}

func (r *AlertRepository) GetByID(_ context.Context, id string) (*domain.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	alert, ok := r.alerts[id]
	if !ok {
		return nil, errNotFound
	}
	return &alert, nil
}

// List returns newest alerts first.
func (r *AlertRepository) List(_ context.Context, filter repository.AlertFilter) ([]domain.Alert, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []domain.Alert
	for i := len(r.order) - 1; i >= 0; i-- {
		alert := r.alerts[r.order[i]]
		if !contains(filter.Categories, alert.Category) ||
			!contains(filter.Severities, alert.Severity) ||
			!contains(filter.Statuses, alert.Status) ||
			!inRange(alert.CreatedAt, filter.From, filter.To) {
			continue
		}
		if filter.SiteID != nil && (alert.SiteID == nil || *alert.SiteID != *filter.SiteID) {
			continue
		}
		matched = append(matched, alert)
	}
	return page(matched, filter.Limit, filter.Offset), len(matched), nil
}
