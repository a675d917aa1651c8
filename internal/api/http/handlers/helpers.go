package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/siteops/alertdesk/internal/api/dto"
	"github.com/siteops/alertdesk/internal/auth"
	"github.com/siteops/alertdesk/internal/domain"
	apperrors "github.com/siteops/alertdesk/pkg/util/errorutil"
)

const (
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100
)

// parseBody decodes the JSON body into dst and runs struct validation.
func parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return dto.Validate(dst)
}

// currentUser returns the authenticated user loaded by the auth middleware.
func currentUser(c *fiber.Ctx) (*domain.User, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal.User, nil
}

// pathID reads the :id route parameter. Malformed ids cannot match a row and are reported as not found.
func pathID(c *fiber.Ctx, resource string) (string, error) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", apperrors.NewNotFound(resource, map[string]any{"id": id})
	}
	return id, nil
}

type paging struct {
	Page   int
	Limit  int
	Offset int
}

func parsePaging(c *fiber.Ctx) paging {
	page := parseInt(c.Query("page"), defaultPage)
	limit := parseInt(c.Query("limit"), defaultLimit)
	if limit > maxLimit {
		limit = maxLimit
	}
	return paging{Page: page, Limit: limit, Offset: (page - 1) * limit}
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

// parseTime accepts RFC3339 timestamps and plain dates.
func parseTime(field, val string) (*time.Time, error) {
	if val == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return &t, nil
	}
	if t, err := time.Parse(time.DateOnly, val); err == nil {
		return &t, nil
	}
	return nil, apperrors.NewValidationError("invalid date", map[string]any{field: val})
}

// endOfDay extends a plain date so the whole day is included in a range.
func endOfDay(val string, t *time.Time) *time.Time {
	if t == nil || len(val) != len(time.DateOnly) {
		return t
	}
	end := t.Add(24*time.Hour - time.Nanosecond)
	return &end
}

func splitCSV(val string) []string {
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.ToUpper(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func optionalString(val string) *string {
	val = strings.TrimSpace(val)
	if val == "" {
		return nil
	}
	return &val
}

func respondData(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{"data": data})
}

func respondList(c *fiber.Ctx, data any, p paging, total int) error {
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"data": data,
		"meta": dto.PageMeta{Page: p.Page, Limit: p.Limit, Total: total},
	})
}
