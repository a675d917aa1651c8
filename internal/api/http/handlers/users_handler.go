package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/siteops/alertdesk/internal/api/dto"
	"github.com/siteops/alertdesk/internal/domain"
	"github.com/siteops/alertdesk/internal/repository"
	"github.com/siteops/alertdesk/internal/service"
	apperrors "github.com/siteops/alertdesk/pkg/util/errorutil"
)

// UsersHandler exposes account administration.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(users *service.UserService) *UsersHandler {
	return &UsersHandler{users: users}
}

// Create handles POST /users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.UserCreateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.users.Create(c.UserContext(), actor, service.UserCreateInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.UserRole(req.Role),
	})
	if err != nil {
		return err
	}
	return respondData(c, http.StatusCreated, userResponse(user))
}

// List handles GET /users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	p := parsePaging(c)
	filter := repository.UserFilter{
		SearchTerm: optionalString(c.Query("search")),
		Limit:      p.Limit,
		Offset:     p.Offset,
	}
	for _, raw := range splitCSV(c.Query("role")) {
		filter.Roles = append(filter.Roles, domain.UserRole(raw))
	}
	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return apperrors.NewValidationError("invalid query", map[string]any{"active": raw})
		}
		filter.Active = &active
	}
	users, total, err := h.users.List(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	return respondList(c, userResponses(users), p, total)
}

// Get handles GET /users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "user")
	if err != nil {
		return err
	}
	user, err := h.users.Get(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, userResponse(user))
}

// Update handles PATCH /users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "user")
	if err != nil {
		return err
	}
	var req dto.UserUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	patch := service.UserPatch{Name: req.Name, IsActive: req.IsActive}
	if req.Role != nil {
		role := domain.UserRole(*req.Role)
		patch.Role = &role
	}
	user, err := h.users.Update(c.UserContext(), actor, id, patch)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, userResponse(user))
}
