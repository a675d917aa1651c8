package escalation

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/siteops/alertdesk/internal/domain"
	"github.com/siteops/alertdesk/internal/events"
	"github.com/siteops/alertdesk/internal/repository"
	apperrors "github.com/siteops/alertdesk/pkg/util/errorutil"
)

// AlertInput carries a new alert from a detector or the API.
type AlertInput struct {
	SiteID           *string
	UsageID          *string
	Category         domain.AlertCategory
	Severity         domain.AlertSeverity
	Title            string
	Description      string
	DetectedValue    *float64
	ExpectedValue    *float64
	Threshold        *float64
	DeviationPercent *float64
}

// AlertPatch is a partial alert update.
type AlertPatch struct {
	Status      *domain.AlertStatus
	Resolution  *string
	Title       *string
	Description *string
}

func (in AlertInput) validate() error {
	details := map[string]any{}
	if _, ok := domain.ParseAlertCategory(string(in.Category)); !ok {
		details["category"] = "unknown category"
	}
	if !in.Severity.Valid() {
		details["severity"] = "unknown severity"
	}
	if strings.TrimSpace(in.Title) == "" {
		details["title"] = "required"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid alert", details)
	}
	return nil
}

// CreateAlert stores a new OPEN alert and then runs OnAlertCreated for it.
// Escalation failures are logged; the alert itself is the durable result.
func (e *Engine) CreateAlert(ctx context.Context, in AlertInput, actor events.Actor) (AlertOutcome, error) {
	if err := in.validate(); err != nil {
		return AlertOutcome{}, err
	}
	category, _ := domain.ParseAlertCategory(string(in.Category))

	alert := &domain.Alert{
		SiteID:           in.SiteID,
		UsageID:          in.UsageID,
		Category:         category,
		Severity:         in.Severity,
		Status:           domain.AlertStatusOpen,
		Title:            strings.TrimSpace(in.Title),
		Description:      in.Description,
		DetectedValue:    in.DetectedValue,
		ExpectedValue:    in.ExpectedValue,
		Threshold:        in.Threshold,
		DeviationPercent: in.DeviationPercent,
	}
	if err := e.alerts.Create(ctx, alert); err != nil {
		return AlertOutcome{}, err
	}

	outcome := AlertOutcome{
		Alert:   alert,
		Effects: []events.Event{newEvent(events.EventAlertCreated, alert.ID, actor, e.clock(), events.AlertPayload{Alert: *alert})},
	}

	escalated, err := e.OnAlertCreated(ctx, alert)
	if err != nil {
		e.logger.Error("alert escalation failed",
			zap.String("alert_id", alert.ID),
			zap.String("severity", string(alert.Severity)),
			zap.Error(err))
		return outcome, nil
	}
	outcome.Ticket = escalated.Ticket
	outcome.Effects = append(outcome.Effects, escalated.Effects...)
	return outcome, nil
}

// OnAlertCreated opens exactly one ticket for a stored CRITICAL or HIGH alert.
// When the alert already has a ticket, the existing ticket is returned with
// Created=false and no effects. Lower severities yield an empty outcome.
func (e *Engine) OnAlertCreated(ctx context.Context, alert *domain.Alert) (TicketOutcome, error) {
	if alert == nil || !ShouldEscalate(alert.Severity) {
		return TicketOutcome{}, nil
	}

	existing, err := e.tickets.GetByAlertID(ctx, alert.ID)
	if err == nil {
		return TicketOutcome{Ticket: existing}, nil
	}
	if !repository.IsNotFound(err) {
		return TicketOutcome{}, err
	}

	policy, err := e.resolvePolicy(ctx)
	if err != nil {
		return TicketOutcome{}, err
	}
	now := e.clock()
	priority := SeverityToPriority(alert.Severity)

	ticket := &domain.Ticket{
		AlertID:     ptr(alert.ID),
		Title:       alert.Title,
		Description: alert.Description,
		Priority:    priority,
		Status:      domain.TicketStatusOpen,
		SLADeadline: policy.Deadline(priority, now),
		SLAStatus:   domain.SLAOnTime,
		Category:    string(alert.Category),
		Tags:        []string{},
	}
	err = e.tickets.CreateWithSequence(ctx, ticket, Period(now), e.numberFunc(Period(now)))
	if errors.Is(err, repository.ErrConflict) {
		existing, getErr := e.tickets.GetByAlertID(ctx, alert.ID)
		if getErr != nil {
			return TicketOutcome{}, getErr
		}
		return TicketOutcome{Ticket: existing}, nil
	}
	if err != nil {
		return TicketOutcome{}, err
	}

	e.metrics.TicketEscalated(string(priority))
	e.logger.Info("alert escalated",
		zap.String("alert_id", alert.ID),
		zap.String("ticket_id", ticket.ID),
		zap.String("ticket_number", ticket.TicketNumber))

	e.recordHistory(ctx, []domain.TicketHistory{
		historyEntry(ticket.ID, nil, domain.ActionCreated, "", nil, ptr(ticket.TicketNumber)),
	})

	return TicketOutcome{
		Ticket:  ticket,
		Created: true,
		Effects: []events.Event{
			newEvent(events.EventTicketCreated, ticket.ID, events.SystemActor(), now, events.TicketPayload{Ticket: *ticket}),
		},
	}, nil
}

// AcknowledgeAlert moves an alert to ACKNOWLEDGED.
func (e *Engine) AcknowledgeAlert(ctx context.Context, alertID string, actor events.Actor) (AlertOutcome, error) {
	status := domain.AlertStatusAcknowledged
	return e.UpdateAlert(ctx, alertID, AlertPatch{Status: &status}, actor)
}

// ResolveAlert moves an alert to RESOLVED. The resolution text is required.
func (e *Engine) ResolveAlert(ctx context.Context, alertID, resolution string, actor events.Actor) (AlertOutcome, error) {
	if strings.TrimSpace(resolution) == "" {
		return AlertOutcome{}, apperrors.NewValidationError("resolution is required", map[string]any{"resolution": "required"})
	}
	status := domain.AlertStatusResolved
	return e.UpdateAlert(ctx, alertID, AlertPatch{Status: &status, Resolution: &resolution}, actor)
}

// CloseAlert is the delete operation: a forced transition to CLOSED. Closing a
// closed alert is a no-op without effects.
func (e *Engine) CloseAlert(ctx context.Context, alertID string, actor events.Actor) (AlertOutcome, error) {
	alert, err := e.alerts.GetByID(ctx, alertID)
	if err != nil {
		return AlertOutcome{}, lookupError(err, "alert", alertID)
	}
	if alert.Status == domain.AlertStatusClosed {
		return AlertOutcome{Alert: alert}, nil
	}
	alert.Status = domain.AlertStatusClosed
	if err := e.alerts.Update(ctx, alert); err != nil {
		return AlertOutcome{}, err
	}
	return AlertOutcome{
		Alert:   alert,
		Effects: []events.Event{newEvent(events.EventAlertUpdated, alert.ID, actor, e.clock(), events.AlertPayload{Alert: *alert})},
	}, nil
}

// UpdateAlert applies a patch. Status changes must move forward along
// OPEN, ACKNOWLEDGED, RESOLVED, CLOSED; acknowledging stamps the actor and time,
// resolving does the same and requires a resolution. A resolution is only
// accepted on a resolved or closed alert. The patch is validated completely
// before anything is written.
func (e *Engine) UpdateAlert(ctx context.Context, alertID string, patch AlertPatch, actor events.Actor) (AlertOutcome, error) {
	alert, err := e.alerts.GetByID(ctx, alertID)
	if err != nil {
		return AlertOutcome{}, lookupError(err, "alert", alertID)
	}
	now := e.clock()

	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return AlertOutcome{}, apperrors.NewValidationError("title cannot be empty", map[string]any{"title": "required"})
		}
		alert.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		alert.Description = *patch.Description
	}
	if patch.Resolution != nil {
		target := alert.Status
		if patch.Status != nil {
			target = *patch.Status
		}
		if target != domain.AlertStatusResolved && target != domain.AlertStatusClosed {
			return AlertOutcome{}, apperrors.NewValidationError("resolution can only be set when resolving",
				map[string]any{"resolution": "status=" + string(domain.AlertStatusResolved)})
		}
		alert.Resolution = strOrNil(patch.Resolution)
	}

	if patch.Status != nil && *patch.Status != alert.Status {
		next := *patch.Status
		if !next.Valid() {
			return AlertOutcome{}, apperrors.NewValidationError("invalid alert status", map[string]any{"status": string(next)})
		}
		if !alert.Status.CanTransitionTo(next) {
			return AlertOutcome{}, apperrors.NewValidationError("alert status cannot move backwards",
				map[string]any{"from": string(alert.Status), "to": string(next)})
		}
		switch next {
		case domain.AlertStatusAcknowledged:
			alert.AcknowledgedBy = actor.UserID
			alert.AcknowledgedAt = ptr(now)
		case domain.AlertStatusResolved:
			if alert.Resolution == nil || strings.TrimSpace(*alert.Resolution) == "" {
				return AlertOutcome{}, apperrors.NewValidationError("resolution is required", map[string]any{"resolution": "required"})
			}
			if alert.AcknowledgedAt == nil {
				alert.AcknowledgedBy = actor.UserID
				alert.AcknowledgedAt = ptr(now)
			}
			alert.ResolvedBy = actor.UserID
			alert.ResolvedAt = ptr(now)
		}
		alert.Status = next
	} else if patch.Status != nil && (alert.Status == domain.AlertStatusAcknowledged || alert.Status == domain.AlertStatusResolved) {
		// repeated acknowledge/resolve would re-stamp the actor
		return AlertOutcome{}, apperrors.NewValidationError("alert is already "+strings.ToLower(string(alert.Status)), nil)
	}

	if err := e.alerts.Update(ctx, alert); err != nil {
		return AlertOutcome{}, err
	}
	return AlertOutcome{
		Alert:   alert,
		Effects: []events.Event{newEvent(events.EventAlertUpdated, alert.ID, actor, now, events.AlertPayload{Alert: *alert})},
	}, nil
}
