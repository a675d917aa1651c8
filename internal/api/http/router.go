package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/siteops/alertdesk/internal/api/http/handlers"
	"github.com/siteops/alertdesk/internal/auth"
	"github.com/siteops/alertdesk/internal/domain"
	"github.com/siteops/alertdesk/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Alerts         *handlers.AlertsHandler
	Tickets        *handlers.TicketsHandler
	Notifications  *handlers.NotificationsHandler
	Config         *handlers.ConfigHandler
	Users          *handlers.UsersHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))

	api := app.Group("/api/v1")
	authed := cfg.AuthMiddleware.Handle

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/refresh", cfg.Auth.Refresh)
	authGroup.Get("/profile", authed, cfg.Auth.Profile)
	authGroup.Post("/password/change", authed, cfg.Auth.ChangePassword)

	alerts := api.Group("/alerts", authed)
	alerts.Post("/", auth.RequireRole(auth.AlertWriters...), cfg.Alerts.Create)
	alerts.Get("/", cfg.Alerts.List)
	alerts.Get("/:id", cfg.Alerts.Get)
	alerts.Patch("/:id", auth.RequireRole(auth.AlertResponders...), cfg.Alerts.Update)
	alerts.Post("/:id/acknowledge", auth.RequireRole(auth.AlertResponders...), cfg.Alerts.Acknowledge)
	alerts.Post("/:id/resolve", auth.RequireRole(auth.AlertResponders...), cfg.Alerts.Resolve)
	alerts.Delete("/:id", auth.RequireRole(auth.Admins...), cfg.Alerts.Close)

	tickets := api.Group("/tickets", authed)
	tickets.Post("/", auth.RequireRole(auth.TicketWriters...), cfg.Tickets.Create)
	tickets.Get("/", cfg.Tickets.List)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Patch("/:id", auth.RequireRole(auth.TicketWriters...), cfg.Tickets.Update)
	tickets.Get("/:id/comments", cfg.Tickets.ListComments)
	tickets.Post("/:id/comments", auth.RequireRole(auth.TicketWriters...), cfg.Tickets.AddComment)
	tickets.Get("/:id/history", cfg.Tickets.History)
	tickets.Post("/:id/assign", auth.RequireRole(domain.RoleManager, domain.RoleAdmin), cfg.Tickets.Assign)
	tickets.Post("/:id/auto-assign", auth.RequireRole(domain.RoleManager, domain.RoleAdmin), cfg.Tickets.AutoAssign)
	tickets.Post("/:id/self-assign", auth.RequireRole(auth.TicketWriters...), cfg.Tickets.SelfAssign)

	notifications := api.Group("/notifications", authed)
	notifications.Get("/", cfg.Notifications.List)
	notifications.Patch("/:id/read", cfg.Notifications.MarkRead)

	configGroup := api.Group("/config", authed, auth.RequireRole(auth.Admins...))
	configGroup.Get("/sla", cfg.Config.GetSLA)
	configGroup.Put("/sla", cfg.Config.UpdateSLA)

	users := api.Group("/users", authed, auth.RequireRole(auth.Admins...))
	users.Post("/", cfg.Users.Create)
	users.Get("/", cfg.Users.List)
	users.Get("/:id", cfg.Users.Get)
	users.Patch("/:id", cfg.Users.Update)
}
