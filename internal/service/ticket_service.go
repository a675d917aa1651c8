package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/siteops/alertdesk/internal/domain"
	"github.com/siteops/alertdesk/internal/escalation"
	"github.com/siteops/alertdesk/internal/events"
	"github.com/siteops/alertdesk/internal/repository"
	apperrors "github.com/siteops/alertdesk/pkg/util/errorutil"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	engine     *escalation.Engine
	tickets    repository.TicketRepository
	comments   repository.TicketCommentRepository
	history    repository.TicketHistoryRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	Engine      *escalation.Engine
	TicketRepo  repository.TicketRepository
	CommentRepo repository.TicketCommentRepository
	HistoryRepo repository.TicketHistoryRepository
	UserRepo    repository.UserRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// TicketDetail is a ticket with its comments and audit trail.
type TicketDetail struct {
	Ticket   *domain.Ticket
	Comments []domain.TicketComment
	History  []domain.TicketHistory
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		engine:     deps.Engine,
		tickets:    deps.TicketRepo,
		comments:   deps.CommentRepo,
		history:    deps.HistoryRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Create opens a ticket by hand.
func (s *TicketService) Create(ctx context.Context, actorID string, input escalation.TicketInput) (*domain.Ticket, error) {
	if input.AssignedToID != nil && *input.AssignedToID != "" {
		if err := s.ensureAssignable(ctx, *input.AssignedToID); err != nil {
			return nil, err
		}
	}
	outcome, err := s.engine.CreateTicket(ctx, input, events.UserActor(actorID))
	if err != nil {
		return nil, err
	}
	events.PublishAll(ctx, s.dispatcher, outcome.Effects)
	return outcome.Ticket, nil
}

// List returns a page of tickets with SLA standing projected to now.
func (s *TicketService) List(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, int, error) {
	tickets, total, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if err := s.engine.ProjectSLA(ctx, tickets); err != nil {
		return nil, 0, err
	}
	return tickets, total, nil
}

// GetDetail loads a ticket, persisting a worsened SLA standing first.
// Internal comments are hidden from viewers.
func (s *TicketService) GetDetail(ctx context.Context, id string, role domain.UserRole) (*TicketDetail, error) {
	ticket, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	effects, err := s.engine.RefreshSLA(ctx, ticket)
	if err != nil {
		s.logger.Warn("refresh ticket sla failed", zap.String("ticket_id", id), zap.Error(err))
	}
	events.PublishAll(ctx, s.dispatcher, effects)

	comments, err := s.comments.ListByTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	history, err := s.history.ListByTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	return &TicketDetail{
		Ticket:   ticket,
		Comments: visibleComments(comments, role),
		History:  history,
	}, nil
}

// Update applies a partial update.
func (s *TicketService) Update(ctx context.Context, actorID, id string, patch escalation.TicketPatch) (*domain.Ticket, error) {
	if patch.AssignedToID != nil && *patch.AssignedToID != "" {
		if err := s.ensureAssignable(ctx, *patch.AssignedToID); err != nil {
			return nil, err
		}
	}
	outcome, err := s.engine.UpdateTicket(ctx, id, patch, events.UserActor(actorID))
	if err != nil {
		return nil, err
	}
	events.PublishAll(ctx, s.dispatcher, outcome.Effects)
	return outcome.Ticket, nil
}

// AddComment appends a comment and records it in the ticket history.
func (s *TicketService) AddComment(ctx context.Context, actorID, ticketID, text string, internal bool) (*domain.TicketComment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidationError("comment cannot be empty", map[string]any{"comment": "required"})
	}
	if _, err := s.load(ctx, ticketID); err != nil {
		return nil, err
	}

	comment := &domain.TicketComment{
		TicketID:   ticketID,
		UserID:     actorID,
		Comment:    text,
		IsInternal: internal,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	field := "comment"
	entry := &domain.TicketHistory{
		TicketID:  ticketID,
		UserID:    &actorID,
		Action:    domain.ActionCommentAdded,
		FieldName: &field,
		NewValue:  &comment.ID,
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Error("record comment history failed", zap.String("ticket_id", ticketID), zap.Error(err))
	}

	events.PublishAll(ctx, s.dispatcher, []events.Event{{
		Type:     events.EventTicketCommentAdded,
		EntityID: ticketID,
		Actor:    events.UserActor(actorID),
		Payload:  events.TicketCommentPayload{TicketID: ticketID, Comment: *comment},
	}})
	return comment, nil
}

// ListComments returns a ticket's comments, newest first.
func (s *TicketService) ListComments(ctx context.Context, ticketID string, role domain.UserRole) ([]domain.TicketComment, error) {
	if _, err := s.load(ctx, ticketID); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	return visibleComments(comments, role), nil
}

// ListHistory returns the audit trail in insertion order.
func (s *TicketService) ListHistory(ctx context.Context, ticketID string) ([]domain.TicketHistory, error) {
	if _, err := s.load(ctx, ticketID); err != nil {
		return nil, err
	}
	return s.history.ListByTicket(ctx, ticketID)
}

func (s *TicketService) load(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
		}
		return nil, err
	}
	return ticket, nil
}

func (s *TicketService) ensureAssignable(ctx context.Context, userID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return apperrors.NewValidationError("assignee does not exist", map[string]any{"assigned_to_id": userID})
		}
		return err
	}
	if !user.IsActive {
		return apperrors.NewValidationError("assignee is inactive", map[string]any{"assigned_to_id": userID})
	}
	return nil
}

func visibleComments(comments []domain.TicketComment, role domain.UserRole) []domain.TicketComment {
	if role != domain.RoleViewer {
		return comments
	}
	out := make([]domain.TicketComment, 0, len(comments))
	for _, c := range comments {
		if !c.IsInternal {
			out = append(out, c)
		}
	}
	return out
}
