package service

import (
	"context"
	"sort"

	"github.com/siteops/alertdesk/internal/domain"
	"github.com/siteops/alertdesk/internal/escalation"
	"github.com/siteops/alertdesk/internal/events"
	"github.com/siteops/alertdesk/internal/repository"
	apperrors "github.com/siteops/alertdesk/pkg/util/errorutil"
)

// AssignmentService handles ticket assignment operations.
type AssignmentService struct {
	engine     *escalation.Engine
	tickets    repository.TicketRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// AssignmentDependencies bundles collaborators.
type AssignmentDependencies struct {
	Engine     *escalation.Engine
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
}

// AssignableRoles are the roles that can own a ticket.
var AssignableRoles = []domain.UserRole{domain.RoleOps, domain.RoleAnalyst, domain.RoleManager, domain.RoleAdmin}

// AutoAssignRoles are the pool auto-assignment draws from.
var AutoAssignRoles = []domain.UserRole{domain.RoleOps}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	return &AssignmentService{
		engine:     deps.Engine,
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
	}
}

// SelfAssign lets a responder take a ticket.
func (s *AssignmentService) SelfAssign(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if !hasRole(actor.Role, AssignableRoles) {
		return nil, apperrors.NewForbidden("insufficient role for self assign")
	}
	return s.assign(ctx, actor.ID, ticketID, actor.ID)
}

// Assign hands a ticket to another user (MANAGER/ADMIN).
func (s *AssignmentService) Assign(ctx context.Context, actor *domain.User, ticketID, assigneeID string) (*domain.Ticket, error) {
	if err := requireAssignPriv(actor); err != nil {
		return nil, err
	}
	assignee, err := s.users.GetByID(ctx, assigneeID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": assigneeID})
		}
		return nil, err
	}
	if !assignee.IsActive {
		return nil, apperrors.NewConflict("assignee inactive", map[string]any{"user_id": assigneeID})
	}
	if !hasRole(assignee.Role, AssignableRoles) {
		return nil, apperrors.NewValidationError("assignee cannot own tickets", map[string]any{"role": string(assignee.Role)})
	}
	return s.assign(ctx, actor.ID, ticketID, assignee.ID)
}

// AutoAssign picks an active OPS user for the ticket. The choice is stable for
// a given ticket and pool.
func (s *AssignmentService) AutoAssign(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	if err := requireAssignPriv(actor); err != nil {
		return nil, err
	}
	pool, err := s.users.ListActiveByRoles(ctx, AutoAssignRoles)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, apperrors.NewConflict("no eligible users for auto assignment", nil)
	}
	sort.Slice(pool, func(i, j int) bool {
		return pool[i].CreatedAt.Before(pool[j].CreatedAt)
	})
	assignee := pool[selectIndex(ticketID, len(pool))]
	return s.assign(ctx, actor.ID, ticketID, assignee.ID)
}

// assign sets the owner; an OPEN ticket also moves to ASSIGNED.
func (s *AssignmentService) assign(ctx context.Context, actorID, ticketID, assigneeID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, err
	}
	if ticket.Status.Terminal() {
		return nil, apperrors.NewConflict("ticket is no longer open", map[string]any{"status": string(ticket.Status)})
	}
	patch := escalation.TicketPatch{AssignedToID: &assigneeID}
	if ticket.Status == domain.TicketStatusOpen {
		assigned := domain.TicketStatusAssigned
		patch.Status = &assigned
	}
	outcome, err := s.engine.UpdateTicket(ctx, ticketID, patch, events.UserActor(actorID))
	if err != nil {
		return nil, err
	}
	events.PublishAll(ctx, s.dispatcher, outcome.Effects)
	return outcome.Ticket, nil
}

func selectIndex(key string, length int) int {
	if length == 0 {
		return 0
	}
	sum := 0
	for _, ch := range key {
		sum += int(ch)
	}
	return sum % length
}

func requireAssignPriv(actor *domain.User) error {
	if actor == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if actor.Role != domain.RoleManager && actor.Role != domain.RoleAdmin {
		return apperrors.NewForbidden("insufficient role for assignment")
	}
	return nil
}

func hasRole(role domain.UserRole, allowed []domain.UserRole) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}
