package service

import (
	"context"

	"github.com/siteops/alertdesk/internal/domain"
	"github.com/siteops/alertdesk/internal/escalation"
	"github.com/siteops/alertdesk/internal/events"
	"github.com/siteops/alertdesk/internal/repository"
	apperrors "github.com/siteops/alertdesk/pkg/util/errorutil"
)

// AlertService exposes alert workflows to the API.
type AlertService struct {
	engine     *escalation.Engine
	alerts     repository.AlertRepository
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
}

// AlertDependencies bundles collaborators for the alert service.
type AlertDependencies struct {
	Engine     *escalation.Engine
	AlertRepo  repository.AlertRepository
	TicketRepo repository.TicketRepository
	Dispatcher events.Dispatcher
}

// AlertDetail is an alert together with the ticket it escalated to, if any.
type AlertDetail struct {
	Alert  *domain.Alert
	Ticket *domain.Ticket
}

// NewAlertService constructs the service.
func NewAlertService(deps AlertDependencies) *AlertService {
	return &AlertService{
		engine:     deps.Engine,
		alerts:     deps.AlertRepo,
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
	}
}

// Create stores an alert and escalates it when its severity warrants a ticket.
func (s *AlertService) Create(ctx context.Context, actorID string, input escalation.AlertInput) (*AlertDetail, error) {
	outcome, err := s.engine.CreateAlert(ctx, input, events.UserActor(actorID))
	if err != nil {
		return nil, err
	}
	events.PublishAll(ctx, s.dispatcher, outcome.Effects)
	return &AlertDetail{Alert: outcome.Alert, Ticket: outcome.Ticket}, nil
}

// List returns a filtered page of alerts and the total match count.
func (s *AlertService) List(ctx context.Context, filter repository.AlertFilter) ([]domain.Alert, int, error) {
	return s.alerts.List(ctx, filter)
}

// Get loads an alert and its escalated ticket.
func (s *AlertService) Get(ctx context.Context, id string) (*AlertDetail, error) {
	alert, err := s.alerts.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NewNotFound("alert", map[string]any{"id": id})
		}
		return nil, err
	}
	detail := &AlertDetail{Alert: alert}
	ticket, err := s.tickets.GetByAlertID(ctx, id)
	switch {
	case err == nil:
		detail.Ticket = ticket
	case !repository.IsNotFound(err):
		return nil, err
	}
	return detail, nil
}

// Update applies a partial update.
func (s *AlertService) Update(ctx context.Context, actorID, id string, patch escalation.AlertPatch) (*domain.Alert, error) {
	outcome, err := s.engine.UpdateAlert(ctx, id, patch, events.UserActor(actorID))
	return s.finish(ctx, outcome, err)
}

// Acknowledge marks the alert as seen by actorID.
func (s *AlertService) Acknowledge(ctx context.Context, actorID, id string) (*domain.Alert, error) {
	outcome, err := s.engine.AcknowledgeAlert(ctx, id, events.UserActor(actorID))
	return s.finish(ctx, outcome, err)
}

// Resolve closes out the alert with a resolution note.
func (s *AlertService) Resolve(ctx context.Context, actorID, id, resolution string) (*domain.Alert, error) {
	outcome, err := s.engine.ResolveAlert(ctx, id, resolution, events.UserActor(actorID))
	return s.finish(ctx, outcome, err)
}

// Close is the delete operation.
func (s *AlertService) Close(ctx context.Context, actorID, id string) (*domain.Alert, error) {
	outcome, err := s.engine.CloseAlert(ctx, id, events.UserActor(actorID))
	return s.finish(ctx, outcome, err)
}

func (s *AlertService) finish(ctx context.Context, outcome escalation.AlertOutcome, err error) (*domain.Alert, error) {
	if err != nil {
		return nil, err
	}
	events.PublishAll(ctx, s.dispatcher, outcome.Effects)
	return outcome.Alert, nil
}
