package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/siteops/alertdesk/internal/domain"
	"github.com/siteops/alertdesk/internal/repository"
)

// SystemConfigRepository is an in-memory key/value table.
type SystemConfigRepository struct {
	mu      sync.RWMutex
	entries map[string]domain.ConfigEntry
}

// NewSystemConfigRepository returns an empty table.
func NewSystemConfigRepository() *SystemConfigRepository {
	return &SystemConfigRepository{entries: make(map[string]domain.ConfigEntry)}
}

var _ repository.SystemConfigRepository = (*SystemConfigRepository)(nil)

func (r *SystemConfigRepository) ListByPrefix(_ context.Context, prefix string) ([]domain.ConfigEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.ConfigEntry
	for key, entry := range r.entries {
		if strings.HasPrefix(key, prefix) {
			result = append(result, entry)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result, nil
}

func (r *SystemConfigRepository) Upsert(_ context.Context, entries []domain.ConfigEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := now()
	for _, entry := range entries {
		entry.UpdatedAt = ts
		entry.UpdatedBy = cloneString(entry.UpdatedBy)
		r.entries[entry.Key] = entry
	}
	return nil
}
