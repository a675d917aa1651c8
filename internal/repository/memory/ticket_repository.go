package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/siteops/alertdesk/internal/domain"
	"github.com/siteops/alertdesk/internal/repository"
)

// TicketRepository is an in-memory repository.TicketRepository. The ticket
// table and the per-period sequences share one lock so that numbering and
// insertion are atomic together.
type TicketRepository struct {
	mu        sync.RWMutex
	tickets   map[string]domain.Ticket
	order     []string
	sequences map[string]int
}

// NewTicketRepository returns an empty store.
func NewTicketRepository() *TicketRepository {
	return &TicketRepository{
		tickets:   make(map[string]domain.Ticket),
		sequences: make(map[string]int),
	}
}

var _ repository.TicketRepository = (*TicketRepository)(nil)

func (r *TicketRepository) CreateWithSequence(_ context.Context, ticket *domain.Ticket, period string, number repository.NumberFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ticket.AlertID != nil {
		for _, existing := range r.tickets {
			if existing.AlertID != nil && *existing.AlertID == *ticket.AlertID {
				return repository.ErrConflict
			}
		}
	}

	seq := r.sequences[period] + 1
	candidate := number(seq)
	for _, existing := range r.tickets {
		if existing.TicketNumber == candidate {
			return repository.ErrDuplicateNumber
		}
	}
	r.sequences[period] = seq

	ticket.TicketNumber = candidate
	ticket.ID = uuid.NewString()
	ticket.CreatedAt = now()
	ticket.UpdatedAt = ticket.CreatedAt
	ticket.Tags = cloneTags(ticket.Tags)
	r.tickets[ticket.ID] = cloneTicket(*ticket)
	r.order = append(r.order, ticket.ID)
	return nil
}

func (r *TicketRepository) NextSequenceForMonth(_ context.Context, period string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sequences[period]++
	return r.sequences[period], nil
}

func (r *TicketRepository) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.tickets[ticket.ID]
	if !ok {
		return errNotFound
	}
	if !stored.UpdatedAt.Equal(ticket.UpdatedAt) {
		return repository.ErrStale
	}
	// number, alert link and deadline are immutable after creation
	ticket.TicketNumber = stored.TicketNumber
	ticket.AlertID = cloneString(stored.AlertID)
	ticket.SLADeadline = stored.SLADeadline
	ticket.CreatedAt = stored.CreatedAt
	ticket.UpdatedAt = touch(stored.UpdatedAt)
	r.tickets[ticket.ID] = cloneTicket(*ticket)
	return nil
}

func (r *TicketRepository) UpdateSLAStatus(_ context.Context, id string, status domain.SLAStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.tickets[id]
	if !ok || stored.Status.Terminal() || stored.SLAStatus.Rank() >= status.Rank() {
		return false, nil
	}
	stored.SLAStatus = status
	stored.UpdatedAt = touch(stored.UpdatedAt)
	r.tickets[id] = stored
	return true, nil
}

// touch returns a timestamp strictly after previous.
func touch(previous time.Time) time.Time {
	next := now()
	if !next.After(previous) {
		next = previous.Add(time.Microsecond)
	}
	return next
}

func (r *TicketRepository) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ticket, ok := r.tickets[id]
	if !ok {
		return nil, errNotFound
	}
	out := cloneTicket(ticket)
	return &out, nil
}

func (r *TicketRepository) GetByAlertID(_ context.Context, alertID string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, ticket := range r.tickets {
		if ticket.AlertID != nil && *ticket.AlertID == alertID {
			out := cloneTicket(ticket)
			return &out, nil
		}
	}
	return nil, errNotFound
}

// List returns newest tickets first.
func (r *TicketRepository) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search := ""
	if filter.SearchTerm != nil {
		search = strings.ToLower(strings.TrimSpace(*filter.SearchTerm))
	}

	var matched []domain.Ticket
	for i := len(r.order) - 1; i >= 0; i-- {
		ticket := r.tickets[r.order[i]]
		if !contains(filter.Statuses, ticket.Status) ||
			!contains(filter.Priorities, ticket.Priority) ||
			!contains(filter.SLAStatuses, ticket.SLAStatus) ||
			!inRange(ticket.CreatedAt, filter.From, filter.To) {
			continue
		}
		if filter.AssignedToID != nil && (ticket.AssignedToID == nil || *ticket.AssignedToID != *filter.AssignedToID) {
			continue
		}
		if filter.Category != nil && ticket.Category != *filter.Category {
			continue
		}
		if search != "" && !containsFold(ticket.Title, search) &&
			!containsFold(ticket.Description, search) && !containsFold(ticket.TicketNumber, search) {
			continue
		}
		matched = append(matched, cloneTicket(ticket))
	}
	return page(matched, filter.Limit, filter.Offset), len(matched), nil
}

func (r *TicketRepository) ListSLACandidates(_ context.Context, cutoff time.Time, limit int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 500
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if ticket.Status.Terminal() || ticket.SLAStatus == domain.SLABreached || !ticket.SLADeadline.Before(cutoff) {
			continue
		}
		result = append(result, cloneTicket(ticket))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].SLADeadline.Before(result[j].SLADeadline)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func cloneTicket(t domain.Ticket) domain.Ticket {
	t.AlertID = cloneString(t.AlertID)
	t.AssignedToID = cloneString(t.AssignedToID)
	t.Resolution = cloneString(t.Resolution)
	t.AssignedAt = cloneTime(t.AssignedAt)
	t.ResolvedAt = cloneTime(t.ResolvedAt)
	t.ClosedAt = cloneTime(t.ClosedAt)
	t.Tags = cloneTags(t.Tags)
	return t
}

func cloneTags(tags []string) []string {
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}
