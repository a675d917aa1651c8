package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/siteops/alertdesk/internal/domain"
)

// TicketFilter captures list parameters.
type TicketFilter struct {
	Statuses     []domain.TicketStatus
	Priorities   []domain.TicketPriority
	SLAStatuses  []domain.SLAStatus
	AssignedToID *string
	Category     *string
	SearchTerm   *string
	From         *time.Time
	To           *time.Time
	Limit        int
	Offset       int
}

// NumberFunc formats a ticket number from the period sequence value.
type NumberFunc func(seq int) string

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	// CreateWithSequence takes the next value of the period's sequence, formats the
	// ticket number and inserts the ticket atomically. It returns ErrConflict when the
	// alert already has a ticket and ErrDuplicateNumber when the number is taken; the
	// sequence is not consumed in either case.
	CreateWithSequence(ctx context.Context, ticket *domain.Ticket, period string, number NumberFunc) error
	// Update writes the mutable fields only if the row still carries ticket.UpdatedAt,
	// returning ErrStale otherwise.
	Update(ctx context.Context, ticket *domain.Ticket) error
	// UpdateSLAStatus stores a worse standing on an open ticket. It reports false
	// when the ticket is missing, no longer open, or already at that standing or worse.
	UpdateSLAStatus(ctx context.Context, id string, status domain.SLAStatus) (bool, error)
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByAlertID(ctx context.Context, alertID string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error)
	// ListSLACandidates returns open tickets not yet BREACHED whose deadline is before cutoff.
	ListSLACandidates(ctx context.Context, cutoff time.Time, limit int) ([]domain.Ticket, error)
	NextSequenceForMonth(ctx context.Context, period string) (int, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, ticket_number, alert_id, title, description, priority, status, assigned_to_id,
        assigned_at, resolved_at, closed_at, resolution, sla_deadline, sla_status, category, tags,
        created_at, updated_at`

const nextSequenceQuery = `
        INSERT INTO ticket_sequences (period, value) VALUES ($1, 1)
        ON CONFLICT (period) DO UPDATE SET value = ticket_sequences.value + 1
        RETURNING value`

func (r *ticketRepository) CreateWithSequence(ctx context.Context, ticket *domain.Ticket, period string, number NumberFunc) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var seq int
	if err := tx.QueryRow(ctx, nextSequenceQuery, period).Scan(&seq); err != nil {
		return fmt.Errorf("next ticket sequence: %w", err)
	}
	ticket.TicketNumber = number(seq)

	const query = `
        INSERT INTO tickets (ticket_number, alert_id, title, description, priority, status, assigned_to_id,
            assigned_at, sla_deadline, sla_status, category, tags)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id, created_at, updated_at`
	err = tx.QueryRow(ctx, query,
		ticket.TicketNumber,
		ticket.AlertID,
		ticket.Title,
		ticket.Description,
		ticket.Priority,
		ticket.Status,
		ticket.AssignedToID,
		ticket.AssignedAt,
		ticket.SLADeadline,
		ticket.SLAStatus,
		ticket.Category,
		tagsOrEmpty(ticket.Tags),
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
	if err != nil {
		switch {
		case violatesConstraint(err, "tickets_alert_id_key"):
			return ErrConflict
		case violatesConstraint(err, "tickets_ticket_number_key"):
			return fmt.Errorf("%s: %w", ticket.TicketNumber, ErrDuplicateNumber)
		}
		return err
	}
	return tx.Commit(ctx)
}

func (r *ticketRepository) NextSequenceForMonth(ctx context.Context, period string) (int, error) {
	var seq int
	err := r.pool.QueryRow(ctx, nextSequenceQuery, period).Scan(&seq)
	return seq, err
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, priority=$3, status=$4, assigned_to_id=$5,
            assigned_at=$6, resolved_at=$7, closed_at=$8, resolution=$9, sla_status=$10,
            category=$11, tags=$12, updated_at=clock_timestamp()
        WHERE id=$13 AND updated_at=$14
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Priority,
		ticket.Status,
		ticket.AssignedToID,
		ticket.AssignedAt,
		ticket.ResolvedAt,
		ticket.ClosedAt,
		ticket.Resolution,
		ticket.SLAStatus,
		ticket.Category,
		tagsOrEmpty(ticket.Tags),
		ticket.ID,
		ticket.UpdatedAt,
	).Scan(&ticket.UpdatedAt)
	if !IsNotFound(err) {
		return err
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tickets WHERE id=$1)`, ticket.ID).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrStale
	}
	return pgx.ErrNoRows
}

func (r *ticketRepository) UpdateSLAStatus(ctx context.Context, id string, status domain.SLAStatus) (bool, error) {
	const query = `
        UPDATE tickets SET sla_status=$1, updated_at=clock_timestamp()
        WHERE id=$2
          AND status IN ('OPEN','ASSIGNED','IN_PROGRESS','PENDING')
          AND sla_status = ANY($3)`
	better := make([]string, 0, 2)
	for _, s := range status.Better() {
		better = append(better, string(s))
	}
	cmd, err := r.pool.Exec(ctx, query, string(status), id, better)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return scanTicket(r.pool.QueryRow(ctx, query, id))
}

func (r *ticketRepository) GetByAlertID(ctx context.Context, alertID string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE alert_id=$1`
	return scanTicket(r.pool.QueryRow(ctx, query, alertID))
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error) {
	where := newWhere()
	where.in("status", anySlice(filter.Statuses))
	where.in("priority", anySlice(filter.Priorities))
	where.in("sla_status", anySlice(filter.SLAStatuses))
	if filter.AssignedToID != nil {
		where.add("assigned_to_id=%s", *filter.AssignedToID)
	}
	if filter.Category != nil {
		where.add("category=%s", *filter.Category)
	}
	if filter.From != nil {
		where.add("created_at >= %s", *filter.From)
	}
	if filter.To != nil {
		where.add("created_at <= %s", *filter.To)
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		where.add("(LOWER(title) LIKE %[1]s OR LOWER(description) LIKE %[1]s OR LOWER(ticket_number) LIKE %[1]s)", search)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tickets WHERE `+where.sql(), where.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := normaliseLimit(filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		ticketColumns, where.sql(), limit, offset)

	rows, err := r.pool.Query(ctx, query, where.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	tickets, err := scanTickets(rows)
	return tickets, total, err
}

func (r *ticketRepository) ListSLACandidates(ctx context.Context, cutoff time.Time, limit int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 500
	}
	query := fmt.Sprintf(`SELECT %s FROM tickets
        WHERE status IN ('OPEN','ASSIGNED','IN_PROGRESS','PENDING')
          AND sla_status <> 'BREACHED'
          AND sla_deadline < $1
        ORDER BY sla_deadline ASC LIMIT %d`, ticketColumns, limit)

	rows, err := r.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func scanTicket(row rowScanner) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.TicketNumber,
		&ticket.AlertID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Priority,
		&ticket.Status,
		&ticket.AssignedToID,
		&ticket.AssignedAt,
		&ticket.ResolvedAt,
		&ticket.ClosedAt,
		&ticket.Resolution,
		&ticket.SLADeadline,
		&ticket.SLAStatus,
		&ticket.Category,
		&ticket.Tags,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
