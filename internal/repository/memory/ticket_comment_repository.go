package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/siteops/alertdesk/internal/domain"
	"github.com/siteops/alertdesk/internal/repository"
)

// TicketCommentRepository stores comments in memory.
type TicketCommentRepository struct {
	mu       sync.RWMutex
	comments []domain.TicketComment
}

// NewTicketCommentRepository returns an empty store.
func NewTicketCommentRepository() *TicketCommentRepository {
	return &TicketCommentRepository{}
}

var _ repository.TicketCommentRepository = (*TicketCommentRepository)(nil)

func (r *TicketCommentRepository) Create(_ context.Context, comment *domain.TicketComment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	comment.ID = uuid.NewString()
	comment.CreatedAt = now()
	r.comments = append(r.comments, *comment)
	return nil
}

// ListByTicket returns newest comments first.
func (r *TicketCommentRepository) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketComment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.TicketComment
	for i := len(r.comments) - 1; i >= 0; i-- {
		if r.comments[i].TicketID == ticketID {
			result = append(result, r.comments[i])
		}
	}
	return result, nil
}
