package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/siteops/alertdesk/internal/domain"
)

// TicketCommentRepository manages ticket comments.
type TicketCommentRepository interface {
	Create(ctx context.Context, comment *domain.TicketComment) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketComment, error)
}

type ticketCommentRepository struct {
	pool *pgxpool.Pool
}

// NewTicketCommentRepository builds repository.
func NewTicketCommentRepository(pool *pgxpool.Pool) TicketCommentRepository {
	return &ticketCommentRepository{pool: pool}
}

func (r *ticketCommentRepository) Create(ctx context.Context, comment *domain.TicketComment) error {
	const query = `
        INSERT INTO ticket_comments (ticket_id, user_id, comment, is_internal)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		comment.TicketID,
		comment.UserID,
		comment.Comment,
		comment.IsInternal,
	).Scan(&comment.ID, &comment.CreatedAt)
}

// ListByTicket returns newest comments first.
func (r *ticketCommentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketComment, error) {
	const query = `
        SELECT id, ticket_id, user_id, comment, is_internal, created_at
        FROM ticket_comments WHERE ticket_id=$1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketComment
	for rows.Next() {
		var c domain.TicketComment
		if err := rows.Scan(&c.ID, &c.TicketID, &c.UserID, &c.Comment, &c.IsInternal, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}
