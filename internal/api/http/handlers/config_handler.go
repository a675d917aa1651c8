package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/siteops/alertdesk/internal/api/dto"
	"github.com/siteops/alertdesk/internal/domain"
	"github.com/siteops/alertdesk/internal/service"
)

// ConfigHandler exposes the runtime SLA table.
type ConfigHandler struct {
	config *service.ConfigService
}

// NewConfigHandler constructs handler.
func NewConfigHandler(config *service.ConfigService) *ConfigHandler {
	return &ConfigHandler{config: config}
}

// GetSLA handles GET /config/sla.
func (h *ConfigHandler) GetSLA(c *fiber.Ctx) error {
	policy, err := h.config.GetSLA(c.UserContext())
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, slaConfigResponse(policy))
}

// UpdateSLA handles PUT /config/sla. New hours apply to tickets created afterwards.
func (h *ConfigHandler) UpdateSLA(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.SLAConfigRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	hours := make(map[domain.TicketPriority]int, len(req.Hours))
	for priority, n := range req.Hours {
		hours[domain.TicketPriority(priority)] = n
	}
	policy, err := h.config.UpdateSLA(c.UserContext(), actor.ID, hours)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, slaConfigResponse(policy))
}
