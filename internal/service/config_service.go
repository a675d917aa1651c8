package service

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/siteops/alertdesk/internal/domain"
	"github.com/siteops/alertdesk/internal/repository"
	"github.com/siteops/alertdesk/internal/sla"
	apperrors "github.com/siteops/alertdesk/pkg/util/errorutil"
)

// ConfigService serves the SLA table: env defaults overlaid with system_config rows.
// It implements sla.Source.
type ConfigService struct {
	entries  repository.SystemConfigRepository
	defaults sla.Policy
	logger   *zap.Logger
}

// NewConfigService builds the service.
func NewConfigService(entries repository.SystemConfigRepository, defaults sla.Policy, logger *zap.Logger) *ConfigService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConfigService{entries: entries, defaults: defaults.Clone(), logger: logger}
}

// Policy implements sla.Source. Stored rows that fail to parse are ignored
// in favour of the defaults.
func (s *ConfigService) Policy(ctx context.Context) (sla.Policy, error) {
	rows, err := s.entries.ListByPrefix(ctx, sla.ConfigKeyPrefix)
	if err != nil {
		return sla.Policy{}, err
	}
	policy, err := s.defaults.ApplyEntries(rows)
	if err != nil {
		s.logger.Warn("ignoring invalid stored sla table", zap.Error(err))
		return s.defaults.Clone(), nil
	}
	return policy, nil
}

// GetSLA returns the effective table.
func (s *ConfigService) GetSLA(ctx context.Context) (sla.Policy, error) {
	return s.Policy(ctx)
}

// UpdateSLA stores new hours for the given priorities. The whole update is
// rejected when any entry is invalid.
func (s *ConfigService) UpdateSLA(ctx context.Context, actorID string, hours map[domain.TicketPriority]int) (sla.Policy, error) {
	if len(hours) == 0 {
		return sla.Policy{}, apperrors.NewValidationError("no sla hours supplied", nil)
	}
	details := map[string]any{}
	rows := make([]domain.ConfigEntry, 0, len(hours))
	for _, priority := range domain.TicketPriorities {
		value, ok := hours[priority]
		if !ok {
			continue
		}
		if value <= 0 {
			details[string(priority)] = "must be positive"
			continue
		}
		rows = append(rows, domain.ConfigEntry{
			Key:       sla.ConfigKeyPrefix + string(priority),
			Value:     strconv.Itoa(value),
			UpdatedBy: &actorID,
		})
	}
	for priority := range hours {
		if !priority.Valid() {
			details[string(priority)] = "unknown priority"
		}
	}
	if len(details) > 0 {
		return sla.Policy{}, apperrors.NewValidationError("invalid sla hours", details)
	}

	if err := s.entries.Upsert(ctx, rows); err != nil {
		return sla.Policy{}, err
	}
	s.logger.Info("sla table updated", zap.String("user_id", actorID), zap.Int("entries", len(rows)))
	return s.Policy(ctx)
}
