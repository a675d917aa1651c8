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

// AlertsHandler exposes alert intake and lifecycle endpoints.
type AlertsHandler struct {
	alerts *service.AlertService
}

// NewAlertsHandler constructs handler.
func NewAlertsHandler(alerts *service.AlertService) *AlertsHandler {
	return &AlertsHandler{alerts: alerts}
}

// Create handles POST /alerts. HIGH and CRITICAL alerts come back with their ticket.
func (h *AlertsHandler) Create(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.AlertCreateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	detail, err := h.alerts.Create(c.UserContext(), actor.ID, escalation.AlertInput{
		SiteID:           req.SiteID,
		UsageID:          req.UsageID,
		Category:         domain.AlertCategory(req.Category),
		Severity:         domain.AlertSeverity(req.Severity),
		Title:            req.Title,
		Description:      req.Description,
		DetectedValue:    req.DetectedValue,
		ExpectedValue:    req.ExpectedValue,
		Threshold:        req.Threshold,
		DeviationPercent: req.DeviationPercent,
	})
	if err != nil {
		return err
	}
	return respondData(c, http.StatusCreated, alertDetail(detail.Alert, detail.Ticket))
}

// List handles GET /alerts.
func (h *AlertsHandler) List(c *fiber.Ctx) error {
	filter, p, err := parseAlertFilter(c)
	if err != nil {
		return err
	}
	alerts, total, err := h.alerts.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return respondList(c, alertResponses(alerts), p, total)
}

// Get handles GET /alerts/:id.
func (h *AlertsHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c, "alert")
	if err != nil {
		return err
	}
	detail, err := h.alerts.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, alertDetail(detail.Alert, detail.Ticket))
}

// Update handles PATCH /alerts/:id.
func (h *AlertsHandler) Update(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "alert")
	if err != nil {
		return err
	}
	var req dto.AlertUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	patch := escalation.AlertPatch{
		Resolution:  req.Resolution,
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Status != nil {
		status := domain.AlertStatus(*req.Status)
		patch.Status = &status
	}
	alert, err := h.alerts.Update(c.UserContext(), actor.ID, id, patch)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, alertResponse(alert))
}

// Acknowledge handles POST /alerts/:id/acknowledge.
func (h *AlertsHandler) Acknowledge(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "alert")
	if err != nil {
		return err
	}
	alert, err := h.alerts.Acknowledge(c.UserContext(), actor.ID, id)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, alertResponse(alert))
}

// Resolve handles POST /alerts/:id/resolve.
func (h *AlertsHandler) Resolve(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "alert")
	if err != nil {
		return err
	}
	var req dto.AlertResolveRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	alert, err := h.alerts.Resolve(c.UserContext(), actor.ID, id, req.Resolution)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, alertResponse(alert))
}

// Close handles DELETE /alerts/:id. Alerts are never removed; they move to CLOSED.
func (h *AlertsHandler) Close(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "alert")
	if err != nil {
		return err
	}
	alert, err := h.alerts.Close(c.UserContext(), actor.ID, id)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, alertResponse(alert))
}

func parseAlertFilter(c *fiber.Ctx) (repository.AlertFilter, paging, error) {
	p := parsePaging(c)
	filter := repository.AlertFilter{
		SiteID: optionalString(c.Query("site_id")),
		Limit:  p.Limit,
		Offset: p.Offset,
	}
	for _, raw := range splitCSV(c.Query("category")) {
		if category, ok := domain.ParseAlertCategory(raw); ok {
			filter.Categories = append(filter.Categories, category)
		}
	}
	for _, raw := range splitCSV(c.Query("severity")) {
		filter.Severities = append(filter.Severities, domain.AlertSeverity(raw))
	}
	for _, raw := range splitCSV(c.Query("status")) {
		filter.Statuses = append(filter.Statuses, domain.AlertStatus(raw))
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
