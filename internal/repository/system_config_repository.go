package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/siteops/alertdesk/internal/domain"
)

// SystemConfigRepository reads and writes the key/value configuration table.
type SystemConfigRepository interface {
	ListByPrefix(ctx context.Context, prefix string) ([]domain.ConfigEntry, error)
	Upsert(ctx context.Context, entries []domain.ConfigEntry) error
}

type systemConfigRepository struct {
	pool *pgxpool.Pool
}

// NewSystemConfigRepository builds repository.
func NewSystemConfigRepository(pool *pgxpool.Pool) SystemConfigRepository {
	return &systemConfigRepository{pool: pool}
}

func (r *systemConfigRepository) ListByPrefix(ctx context.Context, prefix string) ([]domain.ConfigEntry, error) {
	const query = `SELECT key, value, updated_by, updated_at FROM system_config WHERE key LIKE $1 || '%' ORDER BY key`
	rows, err := r.pool.Query(ctx, query, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ConfigEntry
	for rows.Next() {
		var entry domain.ConfigEntry
		if err := rows.Scan(&entry.Key, &entry.Value, &entry.UpdatedBy, &entry.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

// Upsert writes all entries in one transaction.
func (r *systemConfigRepository) Upsert(ctx context.Context, entries []domain.ConfigEntry) error {
	const query = `
        INSERT INTO system_config (key, value, updated_by, updated_at) VALUES ($1, $2, $3, NOW())
        ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_by = EXCLUDED.updated_by, updated_at = NOW()`

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	batch := &pgx.Batch{}
	for _, entry := range entries {
		batch.Queue(query, entry.Key, entry.Value, entry.UpdatedBy)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
