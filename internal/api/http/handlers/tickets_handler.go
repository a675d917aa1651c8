package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/siteops/alertdesk/internal/api/dto"
	"github.com/siteops/alertdesk/internal/domain"
	"github.com/siteops/alertdesk/internal/escalation"
	"github.com/siteops/alertdesk/internal/repository"
	"github.com/siteops/alertdesk/internal/service"
)

// TicketsHandler exposes ticket endpoints for operators.
type TicketsHandler struct {
	tickets     *service.TicketService
	assignments *service.AssignmentService
}

// NewTicketsHandler builds handler.
func NewTicketsHandler(tickets *service.TicketService, assignments *service.AssignmentService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, assignments: assignments}
}

// Create handles POST /tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.TicketCreateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.Create(c.UserContext(), actor.ID, escalation.TicketInput{
		AlertID:      req.AlertID,
		Title:        req.Title,
		Description:  req.Description,
		Priority:     domain.TicketPriority(req.Priority),
		Category:     req.Category,
		Tags:         req.Tags,
		AssignedToID: req.AssignedToID,
	})
	if err != nil {
		return err
	}
	return respondData(c, http.StatusCreated, ticketResponse(ticket))
}

// List handles GET /tickets. SLA standings in the response are computed at read time.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	filter, p, err := parseTicketFilter(c)
	if err != nil {
		return err
	}
	tickets, total, err := h.tickets.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return respondList(c, ticketSummaries(tickets), p, total)
}

// Get handles GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "ticket")
	if err != nil {
		return err
	}
	detail, err := h.tickets.GetDetail(c.UserContext(), id, actor.Role)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, ticketDetail(detail.Ticket, detail.Comments, detail.History))
}

// Update handles PATCH /tickets/:id.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "ticket")
	if err != nil {
		return err
	}
	var req dto.TicketUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	patch := escalation.TicketPatch{
		AssignedToID: req.AssignedToID,
		Resolution:   req.Resolution,
		Category:     req.Category,
		Tags:         req.Tags,
	}
	if req.Status != nil {
		status := domain.TicketStatus(*req.Status)
		patch.Status = &status
	}
	if req.Priority != nil {
		priority := domain.TicketPriority(*req.Priority)
		patch.Priority = &priority
	}
	ticket, err := h.tickets.Update(c.UserContext(), actor.ID, id, patch)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, ticketResponse(ticket))
}

// AddComment handles POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "ticket")
	if err != nil {
		return err
	}
	var req dto.CommentCreateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	comment, err := h.tickets.AddComment(c.UserContext(), actor.ID, id, req.Comment, req.IsInternal)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusCreated, commentResponse(comment))
}

// ListComments handles GET /tickets/:id/comments.
func (h *TicketsHandler) ListComments(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "ticket")
	if err != nil {
		return err
	}
	comments, err := h.tickets.ListComments(c.UserContext(), id, actor.Role)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, commentResponses(comments))
}

// History handles GET /tickets/:id/history.
func (h *TicketsHandler) History(c *fiber.Ctx) error {
	id, err := pathID(c, "ticket")
	if err != nil {
		return err
	}
	entries, err := h.tickets.ListHistory(c.UserContext(), id)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, historyResponses(entries))
}

// Assign handles POST /tickets/:id/assign.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "ticket")
	if err != nil {
		return err
	}
	var req dto.TicketAssignRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.assignments.Assign(c.UserContext(), actor, id, req.AssigneeID)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, ticketResponse(ticket))
}

// SelfAssign handles POST /tickets/:id/self-assign.
func (h *TicketsHandler) SelfAssign(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "ticket")
	if err != nil {
		return err
	}
	ticket, err := h.assignments.SelfAssign(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, ticketResponse(ticket))
}

// AutoAssign handles POST /tickets/:id/auto-assign.
func (h *TicketsHandler) AutoAssign(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "ticket")
	if err != nil {
		return err
	}
	ticket, err := h.assignments.AutoAssign(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, ticketResponse(ticket))
}

func parseTicketFilter(c *fiber.Ctx) (repository.TicketFilter, paging, error) {
	p := parsePaging(c)
	filter := repository.TicketFilter{
		AssignedToID: optionalString(c.Query("assigned_to_id")),
		Category:     optionalString(c.Query("category")),
		SearchTerm:   optionalString(c.Query("search")),
		Limit:        p.Limit,
		Offset:       p.Offset,
	}
	for _, raw := range splitCSV(c.Query("status")) {
		filter.Statuses = append(filter.Statuses, domain.TicketStatus(raw))
	}
	for _, raw := range splitCSV(c.Query("priority")) {
		filter.Priorities = append(filter.Priorities, domain.TicketPriority(raw))
	}
	for _, raw := range splitCSV(c.Query("sla_status")) {
		filter.SLAStatuses = append(filter.SLAStatuses, domain.SLAStatus(raw))
	}
	from, err := parseTime("start_date", c.Query("start_date"))
	if err != nil {
		return filter, p, err
	}
	to, err := parseTime("end_date", c.Query("end_date"))
	if err != nil {
		return filter, p, err
	}
	filter.From = from
	filter.To = endOfDay(c.Query("end_date"), to)
	return filter, p, nil
}
