package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/siteops/alertdesk/internal/domain"
)

// NotificationFilter captures list parameters for a user's inbox.
type NotificationFilter struct {
	UserID string
	Status *domain.NotificationStatus
	Type   *domain.NotificationType
	Limit  int
	Offset int
}

// NotificationRepository persists notification records.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	UpdateStatus(ctx context.Context, id string, status domain.NotificationStatus, at *time.Time) error
	GetByID(ctx context.Context, id string) (*domain.Notification, error)
	List(ctx context.Context, filter NotificationFilter) ([]domain.Notification, int, error)
	MarkRead(ctx context.Context, id string, at time.Time) error
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository builds repository.
func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

const notificationColumns = `id, user_id, alert_id, ticket_id, type, channel, title, message, status, sent_at, read_at, created_at`

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	const query = `
        INSERT INTO notifications (user_id, alert_id, ticket_id, type, channel, title, message, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		n.UserID,
		n.AlertID,
		n.TicketID,
		n.Type,
		n.Channel,
		n.Title,
		n.Message,
		n.Status,
	).Scan(&n.ID, &n.CreatedAt)
}

func (r *notificationRepository) UpdateStatus(ctx context.Context, id string, status domain.NotificationStatus, at *time.Time) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE notifications SET status=$1, sent_at=COALESCE($2, sent_at) WHERE id=$3`, status, at, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id string, at time.Time) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE notifications SET status='READ', read_at=$1 WHERE id=$2`, at, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *notificationRepository) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id=$1`
	return scanNotification(r.pool.QueryRow(ctx, query, id))
}

func (r *notificationRepository) List(ctx context.Context, filter NotificationFilter) ([]domain.Notification, int, error) {
	where := newWhere()
	where.add("user_id=%s", filter.UserID)
	if filter.Status != nil {
		where.add("status=%s", *filter.Status)
	}
	if filter.Type != nil {
		where.add("type=%s", *filter.Type)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE `+where.sql(), where.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := normaliseLimit(filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM notifications WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		notificationColumns, where.sql(), limit, offset)
	rows, err := r.pool.Query(ctx, query, where.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *n)
	}
	return result, total, rows.Err()
}

func scanNotification(row rowScanner) (*domain.Notification, error) {
	var n domain.Notification
	if err := row.Scan(
		&n.ID,
		&n.UserID,
		&n.AlertID,
		&n.TicketID,
		&n.Type,
		&n.Channel,
		&n.Title,
		&n.Message,
		&n.Status,
		&n.SentAt,
		&n.ReadAt,
		&n.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &n, nil
}
