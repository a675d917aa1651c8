package escalation

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/siteops/alertdesk/internal/domain"
	"github.com/siteops/alertdesk/internal/events"
	"github.com/siteops/alertdesk/internal/repository"
	"github.com/siteops/alertdesk/internal/sla"
	apperrors "github.com/siteops/alertdesk/pkg/util/errorutil"
)

// TicketInput describes a manually opened ticket.
type TicketInput struct {
	AlertID      *string
	Title        string
	Description  string
	Priority     domain.TicketPriority
	Category     string
	Tags         []string
	AssignedToID *string
}

// TicketPatch is a partial ticket update. An empty AssignedToID unassigns.
type TicketPatch struct {
	Status       *domain.TicketStatus
	Priority     *domain.TicketPriority
	AssignedToID *string
	Resolution   *string
	Category     *string
	Tags         *[]string
}

func (p TicketPatch) validate() error {
	details := map[string]any{}
	if p.Status != nil && !p.Status.Valid() {
		details["status"] = string(*p.Status)
	}
	if p.Priority != nil && !p.Priority.Valid() {
		details["priority"] = string(*p.Priority)
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid ticket update", details)
	}
	return nil
}

// CreateTicket opens a ticket by hand. A referenced alert must exist and must
// not already have a ticket.
func (e *Engine) CreateTicket(ctx context.Context, in TicketInput, actor events.Actor) (TicketOutcome, error) {
	details := map[string]any{}
	if strings.TrimSpace(in.Title) == "" {
		details["title"] = "required"
	}
	if !in.Priority.Valid() {
		details["priority"] = "unknown priority"
	}
	if len(details) > 0 {
		return TicketOutcome{}, apperrors.NewValidationError("invalid ticket", details)
	}

	if in.AlertID != nil {
		if _, err := e.alerts.GetByID(ctx, *in.AlertID); err != nil {
			return TicketOutcome{}, lookupError(err, "alert", *in.AlertID)
		}
		if existing, err := e.tickets.GetByAlertID(ctx, *in.AlertID); err == nil {
			return TicketOutcome{}, alertHasTicket(*in.AlertID, existing)
		} else if !repository.IsNotFound(err) {
			return TicketOutcome{}, err
		}
	}

	policy, err := e.resolvePolicy(ctx)
	if err != nil {
		return TicketOutcome{}, err
	}
	now := e.clock()

	ticket := &domain.Ticket{
		AlertID:     strOrNil(in.AlertID),
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Priority:    in.Priority,
		Status:      domain.TicketStatusOpen,
		SLADeadline: policy.Deadline(in.Priority, now),
		SLAStatus:   domain.SLAOnTime,
		Category:    in.Category,
		Tags:        normaliseTags(in.Tags),
	}
	if in.AssignedToID != nil && *in.AssignedToID != "" {
		ticket.AssignedToID = strOrNil(in.AssignedToID)
		ticket.AssignedAt = ptr(now)
		ticket.Status = domain.TicketStatusAssigned
	}

	err = e.tickets.CreateWithSequence(ctx, ticket, Period(now), e.numberFunc(Period(now)))
	if errors.Is(err, repository.ErrConflict) {
		existing, getErr := e.tickets.GetByAlertID(ctx, deref(in.AlertID))
		if getErr != nil && !repository.IsNotFound(getErr) {
			return TicketOutcome{}, getErr
		}
		return TicketOutcome{}, alertHasTicket(deref(in.AlertID), existing)
	}
	if err != nil {
		return TicketOutcome{}, err
	}

	entries := []domain.TicketHistory{
		historyEntry(ticket.ID, actor.UserID, domain.ActionCreated, "", nil, ptr(ticket.TicketNumber)),
	}
	effects := []events.Event{
		newEvent(events.EventTicketCreated, ticket.ID, actor, now, events.TicketPayload{Ticket: *ticket}),
	}
	if ticket.AssignedToID != nil {
		entries = append(entries, historyEntry(ticket.ID, actor.UserID, domain.ActionAssigned, "assigned_to_id", nil, strOrNil(ticket.AssignedToID)))
		effects = append(effects, newEvent(events.EventTicketAssigned, ticket.ID, actor, now, events.TicketAssignedPayload{
			Ticket:     *ticket,
			AssigneeID: *ticket.AssignedToID,
		}))
	}
	e.recordHistory(ctx, entries)

	return TicketOutcome{Ticket: ticket, Created: true, Effects: effects}, nil
}

func alertHasTicket(alertID string, existing *domain.Ticket) error {
	details := map[string]any{"alert_id": alertID}
	if existing != nil {
		details["ticket_id"] = existing.ID
		details["ticket_number"] = existing.TicketNumber
	}
	return apperrors.NewConflict("alert already has a ticket", details)
}

// UpdateTicket applies a patch, writing one history entry per changed field in
// this order: status, assignee, priority, resolution, category, tags. SLA
// standing is recomputed before the change is applied.
//
// The write is conditional on the row being unchanged since it was read; on a
// concurrent modification the patch is re-applied to the fresh row, so a change
// another writer already made yields no history entry or effect.
func (e *Engine) UpdateTicket(ctx context.Context, ticketID string, patch TicketPatch, actor events.Actor) (TicketOutcome, error) {
	if err := patch.validate(); err != nil {
		return TicketOutcome{}, err
	}
	for attempt := 1; ; attempt++ {
		outcome, err := e.updateTicketOnce(ctx, ticketID, patch, actor)
		if !errors.Is(err, repository.ErrStale) {
			return outcome, err
		}
		if attempt == maxUpdateAttempts {
			return TicketOutcome{}, apperrors.NewConflict("ticket was modified concurrently, retry the request",
				map[string]any{"ticket_id": ticketID})
		}
		e.logger.Debug("ticket update raced, retrying", zap.String("ticket_id", ticketID), zap.Int("attempt", attempt))
	}
}

const maxUpdateAttempts = 5

func (e *Engine) updateTicketOnce(ctx context.Context, ticketID string, patch TicketPatch, actor events.Actor) (TicketOutcome, error) {
	ticket, err := e.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return TicketOutcome{}, lookupError(err, "ticket", ticketID)
	}
	if patch.Status != nil && *patch.Status != ticket.Status &&
		(ticket.Status == domain.TicketStatusClosed || ticket.Status == domain.TicketStatusCancelled) {
		return TicketOutcome{}, apperrors.NewValidationError("ticket is "+strings.ToLower(string(ticket.Status)),
			map[string]any{"from": string(ticket.Status), "to": string(*patch.Status)})
	}

	policy, err := e.resolvePolicy(ctx)
	if err != nil {
		return TicketOutcome{}, err
	}
	now := e.clock()

	var entries []domain.TicketHistory
	var effects []events.Event

	previousSLA := ticket.SLAStatus
	ticket.SLAStatus = policy.Recompute(ticket, now)
	if ticket.SLAStatus != previousSLA {
		entries = append(entries, historyEntry(ticket.ID, nil, domain.ActionSLAChanged, "sla_status",
			ptr(string(previousSLA)), ptr(string(ticket.SLAStatus))))
	}

	statusChanged := false
	if patch.Status != nil && *patch.Status != ticket.Status {
		entries = append(entries, historyEntry(ticket.ID, actor.UserID, domain.ActionStatusChanged, "status",
			ptr(string(ticket.Status)), ptr(string(*patch.Status))))
		ticket.Status = *patch.Status
		statusChanged = true
		switch ticket.Status {
		case domain.TicketStatusResolved:
			ticket.ResolvedAt = ptr(now)
		case domain.TicketStatusClosed:
			ticket.ClosedAt = ptr(now)
		}
	}

	notifyAssignee := false
	previousAssignee := strOrNil(ticket.AssignedToID)
	if patch.AssignedToID != nil {
		var next *string
		if *patch.AssignedToID != "" {
			next = ptr(*patch.AssignedToID)
		}
		if !sameString(previousAssignee, next) {
			entries = append(entries, historyEntry(ticket.ID, actor.UserID, domain.ActionAssigned, "assigned_to_id",
				previousAssignee, strOrNil(next)))
			ticket.AssignedToID = next
			notifyAssignee = next != nil
		}
	}
	if notifyAssignee || (statusChanged && ticket.Status == domain.TicketStatusAssigned && ticket.AssignedToID != nil) {
		ticket.AssignedAt = ptr(now)
	}

	if patch.Priority != nil && *patch.Priority != ticket.Priority {
		entries = append(entries, historyEntry(ticket.ID, actor.UserID, domain.ActionPriorityChanged, "priority",
			ptr(string(ticket.Priority)), ptr(string(*patch.Priority))))
		ticket.Priority = *patch.Priority
	}
	if patch.Resolution != nil && !sameString(ticket.Resolution, patch.Resolution) {
		entries = append(entries, historyEntry(ticket.ID, actor.UserID, domain.ActionResolutionChanged, "resolution",
			strOrNil(ticket.Resolution), strOrNil(patch.Resolution)))
		ticket.Resolution = strOrNil(patch.Resolution)
	}
	if patch.Category != nil && *patch.Category != ticket.Category {
		entries = append(entries, historyEntry(ticket.ID, actor.UserID, domain.ActionCategoryChanged, "category",
			ptr(ticket.Category), ptr(*patch.Category)))
		ticket.Category = *patch.Category
	}
	if patch.Tags != nil {
		next := normaliseTags(*patch.Tags)
		if strings.Join(next, ",") != strings.Join(ticket.Tags, ",") {
			entries = append(entries, historyEntry(ticket.ID, actor.UserID, domain.ActionTagsChanged, "tags",
				ptr(strings.Join(ticket.Tags, ",")), ptr(strings.Join(next, ","))))
			ticket.Tags = next
		}
	}

	if err := e.tickets.Update(ctx, ticket); err != nil {
		return TicketOutcome{}, lookupError(err, "ticket", ticketID)
	}
	e.recordHistory(ctx, entries)

	if ticket.SLAStatus != previousSLA {
		effects = append(effects, newEvent(events.EventTicketSLAChanged, ticket.ID, events.SystemActor(), now,
			events.TicketSLAChangedPayload{Ticket: *ticket, OldStatus: previousSLA, NewStatus: ticket.SLAStatus}))
	}
	if notifyAssignee {
		effects = append(effects, newEvent(events.EventTicketAssigned, ticket.ID, actor, now, events.TicketAssignedPayload{
			Ticket:           *ticket,
			PreviousAssignee: previousAssignee,
			AssigneeID:       *ticket.AssignedToID,
		}))
	}
	effects = append(effects, newEvent(events.EventTicketUpdated, ticket.ID, actor, now, events.TicketPayload{Ticket: *ticket}))

	return TicketOutcome{Ticket: ticket, Effects: effects}, nil
}

// RecomputeSLA returns the standing of ticket at now under the current policy.
func (e *Engine) RecomputeSLA(ctx context.Context, ticket *domain.Ticket, now time.Time) (domain.SLAStatus, error) {
	policy, err := e.resolvePolicy(ctx)
	if err != nil {
		return ticket.SLAStatus, err
	}
	return policy.Recompute(ticket, now), nil
}

// ProjectSLA refreshes SLAStatus on each ticket in place without writing.
func (e *Engine) ProjectSLA(ctx context.Context, tickets []domain.Ticket) error {
	policy, err := e.resolvePolicy(ctx)
	if err != nil {
		return err
	}
	now := e.clock()
	for i := range tickets {
		tickets[i].SLAStatus = policy.Recompute(&tickets[i], now)
	}
	return nil
}

// RefreshSLA recomputes a ticket's standing and persists it when it worsened.
func (e *Engine) RefreshSLA(ctx context.Context, ticket *domain.Ticket) ([]events.Event, error) {
	policy, err := e.resolvePolicy(ctx)
	if err != nil {
		return nil, err
	}
	effect, err := e.applyStanding(ctx, policy, ticket, e.clock())
	if err != nil || effect == nil {
		return nil, err
	}
	return []events.Event{*effect}, nil
}

// SweepResult summarises one SLA sweep.
type SweepResult struct {
	Checked int
	Updated int
	Failed  int
	Effects []events.Event
}

// SweepSLA rewrites the standing of open tickets whose deadline is inside the
// risk window or already past. A failure on one ticket does not stop the sweep.
func (e *Engine) SweepSLA(ctx context.Context) (SweepResult, error) {
	policy, err := e.resolvePolicy(ctx)
	if err != nil {
		return SweepResult{}, err
	}
	now := e.clock()
	candidates, err := e.tickets.ListSLACandidates(ctx, now.Add(policy.RiskWindow), 0)
	if err != nil {
		return SweepResult{}, err
	}

	result := SweepResult{Checked: len(candidates)}
	for i := range candidates {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		effect, err := e.applyStanding(ctx, policy, &candidates[i], now)
		if err != nil {
			result.Failed++
			e.logger.Warn("sla sweep update failed",
				zap.String("ticket_id", candidates[i].ID),
				zap.String("ticket_number", candidates[i].TicketNumber),
				zap.Error(err))
			continue
		}
		if effect != nil {
			result.Updated++
			result.Effects = append(result.Effects, *effect)
			e.metrics.SLAUpdated(string(candidates[i].SLAStatus))
		}
	}
	return result, nil
}

func (e *Engine) applyStanding(ctx context.Context, policy sla.Policy, ticket *domain.Ticket, now time.Time) (*events.Event, error) {
	previous := ticket.SLAStatus
	next := policy.Recompute(ticket, now)
	if next == previous {
		return nil, nil
	}
	changed, err := e.tickets.UpdateSLAStatus(ctx, ticket.ID, next)
	if err != nil || !changed {
		return nil, err
	}
	ticket.SLAStatus = next
	e.recordHistory(ctx, []domain.TicketHistory{
		historyEntry(ticket.ID, nil, domain.ActionSLAChanged, "sla_status", ptr(string(previous)), ptr(string(next))),
	})
	effect := newEvent(events.EventTicketSLAChanged, ticket.ID, events.SystemActor(), now,
		events.TicketSLAChangedPayload{Ticket: *ticket, OldStatus: previous, NewStatus: next})
	return &effect, nil
}

func normaliseTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
