package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/siteops/alertdesk/internal/domain"
)

// AlertFilter captures list parameters.
type AlertFilter struct {
	Categories []domain.AlertCategory
	Severities []domain.AlertSeverity
	Statuses   []domain.AlertStatus
	SiteID     *string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// AlertRepository encapsulates alert persistence.
type AlertRepository interface {
	Create(ctx context.Context, alert *domain.Alert) error
	Update(ctx context.Context, alert *domain.Alert) error
	GetByID(ctx context.Context, id string) (*domain.Alert, error)
	List(ctx context.Context, filter AlertFilter) ([]domain.Alert, int, error)
}

type alertRepository struct {
	pool *pgxpool.Pool
}

// NewAlertRepository instantiates repository.
func NewAlertRepository(pool *pgxpool.Pool) AlertRepository {
	return &alertRepository{pool: pool}
}

const alertColumns = `id, site_id, usage_id, category, severity, status, title, description,
        detected_value, expected_value, threshold, deviation_percent,
        acknowledged_by, acknowledged_at, resolved_by, resolved_at, resolution, created_at, updated_at`

func (r *alertRepository) Create(ctx context.Context, alert *domain.Alert) error {
	const query = `
        INSERT INTO alerts (site_id, usage_id, category, severity, status, title, description,
            detected_value, expected_value, threshold, deviation_percent)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		alert.SiteID,
		alert.UsageID,
		alert.Category,
		alert.Severity,
		alert.Status,
		alert.Title,
		alert.Description,
		alert.DetectedValue,
		alert.ExpectedValue,
		alert.Threshold,
		alert.DeviationPercent,
	).Scan(&alert.ID, &alert.CreatedAt, &alert.UpdatedAt)
}

func (r *alertRepository) Update(ctx context.Context, alert *domain.Alert) error {
	const query = `
        UPDATE alerts SET status=$1, acknowledged_by=$2, acknowledged_at=$3, resolved_by=$4,
            resolved_at=$5, resolution=$6, updated_at=NOW()
        WHERE id=$7
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		alert.Status,
		alert.AcknowledgedBy,
		alert.AcknowledgedAt,
		alert.ResolvedBy,
		alert.ResolvedAt,
		alert.Resolution,
		alert.ID,
	).Scan(&alert.UpdatedAt)
}

func (r *alertRepository) GetByID(ctx context.Context, id string) (*domain.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id=$1`
	return scanAlert(r.pool.QueryRow(ctx, query, id))
}

func (r *alertRepository) List(ctx context.Context, filter AlertFilter) ([]domain.Alert, int, error) {
	where := newWhere()
	where.in("category", anySlice(filter.Categories))
	where.in("severity", anySlice(filter.Severities))
	where.in("status", anySlice(filter.Statuses))
	if filter.SiteID != nil {
		where.add("site_id=%s", *filter.SiteID)
	}
	if filter.From != nil {
		where.add("created_at >= %s", *filter.From)
	}
	if filter.To != nil {
		where.add("created_at <= %s", *filter.To)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM alerts WHERE `+where.sql(), where.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := normaliseLimit(filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM alerts WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		alertColumns, where.sql(), limit, offset)

	rows, err := r.pool.Query(ctx, query, where.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *alert)
	}
	return result, total, rows.Err()
}

func scanAlert(row rowScanner) (*domain.Alert, error) {
	var alert domain.Alert
	if err := row.Scan(
		&alert.ID,
		&alert.SiteID,
		&alert.UsageID,
		&alert.Category,
		&alert.Severity,
		&alert.Status,
		&alert.Title,
		&alert.Description,
		&alert.DetectedValue,
		&alert.ExpectedValue,
		&alert.Threshold,
		&alert.DeviationPercent,
		&alert.AcknowledgedBy,
		&alert.AcknowledgedAt,
		&alert.ResolvedBy,
		&alert.ResolvedAt,
		&alert.Resolution,
		&alert.CreatedAt,
		&alert.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &alert, nil
}

func anySlice[T any](vals []T) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}
