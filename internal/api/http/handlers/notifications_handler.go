package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/siteops/alertdesk/internal/domain"
	"github.com/siteops/alertdesk/internal/repository"
	"github.com/siteops/alertdesk/internal/service"
)

// NotificationsHandler serves the caller's notification inbox.
type NotificationsHandler struct {
	notifications *service.NotificationService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notifications *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{notifications: notifications}
}

// List handles GET /notifications.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	p := parsePaging(c)
	filter := repository.NotificationFilter{UserID: actor.ID, Limit: p.Limit, Offset: p.Offset}
	if statuses := splitCSV(c.Query("status")); len(statuses) > 0 {
		status := domain.NotificationStatus(statuses[0])
		filter.Status = &status
	}
	if types := splitCSV(c.Query("type")); len(types) > 0 {
		kind := domain.NotificationType(types[0])
		filter.Type = &kind
	}
	records, total, err := h.notifications.ListForUser(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return respondList(c, notificationResponses(records), p, total)
}

// MarkRead handles PATCH /notifications/:id/read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "notification")
	if err != nil {
		return err
	}
	record, err := h.notifications.MarkRead(c.UserContext(), actor.ID, id)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, notificationResponse(record))
}
