// Package escalation turns qualifying alerts into tickets and keeps ticket
// SLA standing and audit history consistent as tickets change.
//
// Every operation persists its state change first and returns the side
// effects it wants performed as events. Callers hand those to an
// events.Dispatcher; delivery failures never affect the stored result.
package escalation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/siteops/alertdesk/internal/domain"
	"github.com/siteops/alertdesk/internal/events"
	"github.com/siteops/alertdesk/internal/observability"
	"github.com/siteops/alertdesk/internal/repository"
	"github.com/siteops/alertdesk/internal/sla"
	apperrors "github.com/siteops/alertdesk/pkg/util/errorutil"
)

// DefaultTicketPrefix is used when no prefix is configured.
const DefaultTicketPrefix = "TKT"

// Dependencies wires the engine.
type Dependencies struct {
	Alerts       repository.AlertRepository
	Tickets      repository.TicketRepository
	History      repository.TicketHistoryRepository
	Policy       sla.Source
	Logger       *zap.Logger
	Metrics      *observability.Metrics
	Clock        func() time.Time
	TicketPrefix string
}

// Engine implements alert escalation and the ticket SLA lifecycle.
type Engine struct {
	alerts  repository.AlertRepository
	tickets repository.TicketRepository
	history repository.TicketHistoryRepository
	policy  sla.Source
	logger  *zap.Logger
	metrics *observability.Metrics
	clock   func() time.Time
	prefix  string
}

// NewEngine constructs an Engine.
func NewEngine(deps Dependencies) *Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	policy := deps.Policy
	if policy == nil {
		policy = sla.StaticSource(sla.DefaultPolicy())
	}
	prefix := deps.TicketPrefix
	if prefix == "" {
		prefix = DefaultTicketPrefix
	}
	return &Engine{
		alerts:  deps.Alerts,
		tickets: deps.Tickets,
		history: deps.History,
		policy:  policy,
		logger:  logger,
		metrics: deps.Metrics,
		clock:   clock,
		prefix:  prefix,
	}
}

// TicketOutcome is the result of an operation that yields a ticket.
type TicketOutcome struct {
	Ticket  *domain.Ticket
	Created bool
	Effects []events.Event
}

// AlertOutcome is the result of an alert mutation.
type AlertOutcome struct {
	Alert   *domain.Alert
	Ticket  *domain.Ticket
	Effects []events.Event
}

// SeverityToPriority maps alert severity to ticket priority. INFO maps to LOW.
func SeverityToPriority(severity domain.AlertSeverity) domain.TicketPriority {
	switch severity {
	case domain.SeverityCritical:
		return domain.TicketPriorityCritical
	case domain.SeverityHigh:
		return domain.TicketPriorityHigh
	case domain.SeverityMedium:
		return domain.TicketPriorityMedium
	default:
		return domain.TicketPriorityLow
	}
}

// ShouldEscalate reports whether an alert of this severity gets a ticket.
func ShouldEscalate(severity domain.AlertSeverity) bool {
	return severity == domain.SeverityCritical || severity == domain.SeverityHigh
}

// FormatTicketNumber renders <prefix>-YYYYMM-NNNNN.
func FormatTicketNumber(prefix, period string, seq int) string {
	return fmt.Sprintf("%s-%s-%05d", prefix, period, seq)
}

// Period returns the numbering period for t, in UTC.
func Period(t time.Time) string {
	return t.UTC().Format("200601")
}

func (e *Engine) numberFunc(period string) repository.NumberFunc {
	return func(seq int) string {
		return FormatTicketNumber(e.prefix, period, seq)
	}
}

// Now returns the engine clock reading.
func (e *Engine) Now() time.Time {
	return e.clock()
}

func (e *Engine) resolvePolicy(ctx context.Context) (sla.Policy, error) {
	policy, err := e.policy.Policy(ctx)
	if err != nil {
		return sla.Policy{}, fmt.Errorf("resolve sla policy: %w", err)
	}
	return policy, nil
}

// recordHistory appends audit entries; failures are logged because the
// ticket mutation has already been committed.
func (e *Engine) recordHistory(ctx context.Context, entries []domain.TicketHistory) {
	for i := range entries {
		if err := e.history.Create(ctx, &entries[i]); err != nil {
			e.logger.Error("record ticket history failed",
				zap.String("ticket_id", entries[i].TicketID),
				zap.String("action", string(entries[i].Action)),
				zap.Error(err))
		}
	}
}

func newEvent(eventType events.EventType, entityID string, actor events.Actor, at time.Time, payload any) events.Event {
	return events.Event{
		Type:      eventType,
		EntityID:  entityID,
		Actor:     actor,
		Timestamp: at,
		Payload:   payload,
	}
}

func historyEntry(ticketID string, actor *string, action domain.HistoryAction, field string, oldValue, newValue *string) domain.TicketHistory {
	entry := domain.TicketHistory{
		TicketID: ticketID,
		UserID:   actor,
		Action:   action,
		OldValue: oldValue,
		NewValue: newValue,
	}
	if field != "" {
		entry.FieldName = &field
	}
	return entry
}

func ptr[T any](v T) *T {
	return &v
}

func strOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	return ptr(*s)
}

func notFound(resource, id string) error {
	return apperrors.NewNotFound(resource, map[string]any{"id": id})
}

func lookupError(err error, resource, id string) error {
	if repository.IsNotFound(err) {
		return notFound(resource, id)
	}
	return err
}
