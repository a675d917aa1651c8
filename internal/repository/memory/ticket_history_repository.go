package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/siteops/alertdesk/internal/domain"
	"github.com/siteops/alertdesk/internal/repository"
)

// TicketHistoryRepository is an append-only in-memory audit log.
type TicketHistoryRepository struct {
	mu      sync.RWMutex
	entries []domain.TicketHistory
}

// NewTicketHistoryRepository returns an empty log.
func NewTicketHistoryRepository() *TicketHistoryRepository {
	return &TicketHistoryRepository{}
}

var _ repository.TicketHistoryRepository = (*TicketHistoryRepository)(nil)

func (r *TicketHistoryRepository) Create(_ context.Context, history *domain.TicketHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	history.ID = uuid.NewString()
	history.CreatedAt = now()
	r.entries = append(r.entries, *history)
	return nil
}

func (r *TicketHistoryRepository) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.TicketHistory
	for _, entry := range r.entries {
		if entry.TicketID == ticketID {
			result = append(result, entry)
		}
	}
	return result, nil
}
