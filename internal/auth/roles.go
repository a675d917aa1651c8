package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/siteops/alertdesk/internal/domain"
)

// Role groups used by the route table.
var (
	AlertWriters    = []domain.UserRole{domain.RoleOps, domain.RoleAnalyst, domain.RoleAdmin}
	AlertResponders = []domain.UserRole{domain.RoleOps, domain.RoleAnalyst, domain.RoleManager, domain.RoleAdmin}
	TicketWriters   = []domain.UserRole{domain.RoleOps, domain.RoleAnalyst, domain.RoleManager, domain.RoleAdmin}
	Admins          = []domain.UserRole{domain.RoleAdmin}
)

// RequireRole ensures the principal has one of the allowed roles.
func RequireRole(allowed ...domain.UserRole) fiber.Handler {
	allowedSet := make(map[domain.UserRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Role()]; !exists {
			return fiber.NewError(http.StatusForbidden, "insufficient role")
		}
		return c.Next()
	}
}
