// Package app assembles the service graph and the Fiber application.
package app

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/siteops/alertdesk/internal/api/http"
	"github.com/siteops/alertdesk/internal/api/http/handlers"
	"github.com/siteops/alertdesk/internal/auth"
	"github.com/siteops/alertdesk/internal/config"
	"github.com/siteops/alertdesk/internal/escalation"
	"github.com/siteops/alertdesk/internal/events"
	"github.com/siteops/alertdesk/internal/notify"
	"github.com/siteops/alertdesk/internal/observability"
	"github.com/siteops/alertdesk/internal/realtime"
	"github.com/siteops/alertdesk/internal/repository"
	"github.com/siteops/alertdesk/internal/service"
	"github.com/siteops/alertdesk/internal/sla"
	"github.com/siteops/alertdesk/internal/worker"
)

// Options carries the infrastructure the application is built on.
type Options struct {
	Config       *config.Config
	Logger       *zap.Logger
	Metrics      *observability.Metrics
	Repos        repository.Set
	TokenManager *auth.TokenManager
	Mailer       notify.Mailer
	// Publisher and Pusher are nil when the realtime gateway is disabled.
	Publisher realtime.Publisher
	Pusher    service.UserPusher
	Health    map[string]handlers.Pinger
	Clock     func() time.Time
}

// App exposes the assembled components.
type App struct {
	Fiber          *fiber.App
	Dispatcher     events.Dispatcher
	Engine         *escalation.Engine
	Config         *service.ConfigService
	Auth           *service.AuthService
	Alerts         *service.AlertService
	Tickets        *service.TicketService
	Assignments    *service.AssignmentService
	Notifications  *service.NotificationService
	Users          *service.UserService
	AuthMiddleware *auth.AuthMiddleware
}

// New wires repositories, services, event subscribers and HTTP routes.
func New(opts Options) *App {
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tokens := opts.TokenManager
	if tokens == nil {
		tokens = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes, cfg.Auth.RefreshTokenTTLMinutes)
	}
	mailer := opts.Mailer
	if mailer == nil {
		mailer = notify.NewMailer(cfg.Notification, logger)
	}
	repos := opts.Repos
	dispatcher := events.NewInMemoryDispatcher(logger)

	configService := service.NewConfigService(repos.SystemConfig, sla.PolicyFromConfig(cfg.SLA), logger)
	engine := escalation.NewEngine(escalation.Dependencies{
		Alerts:       repos.Alerts,
		Tickets:      repos.Tickets,
		History:      repos.History,
		Policy:       configService,
		Logger:       logger,
		Metrics:      opts.Metrics,
		Clock:        opts.Clock,
		TicketPrefix: cfg.SLA.TicketPrefix,
	})

	notifications := service.NewNotificationService(service.NotificationDependencies{
		Dispatcher:       dispatcher,
		NotificationRepo: repos.Notifications,
		UserRepo:         repos.Users,
		Mailer:           mailer,
		Pusher:           opts.Pusher,
		Logger:           logger,
		Metrics:          opts.Metrics,
		Config:           cfg.Notification,
		Clock:            opts.Clock,
	})
	worker.StartNotificationWorker(dispatcher, notifications, opts.Publisher)

	a := &App{
		Dispatcher:    dispatcher,
		Engine:        engine,
		Config:        configService,
		Notifications: notifications,
		Auth: service.NewAuthService(cfg.Auth, service.AuthDependencies{
			UserRepo:     repos.Users,
			TokenManager: tokens,
			Logger:       logger,
			Clock:        opts.Clock,
		}),
		Alerts: service.NewAlertService(service.AlertDependencies{
			Engine:     engine,
			AlertRepo:  repos.Alerts,
			TicketRepo: repos.Tickets,
			Dispatcher: dispatcher,
		}),
		Tickets: service.NewTicketService(service.TicketDependencies{
			Engine:      engine,
			TicketRepo:  repos.Tickets,
			CommentRepo: repos.Comments,
			HistoryRepo: repos.History,
			UserRepo:    repos.Users,
			Dispatcher:  dispatcher,
			Logger:      logger,
		}),
		Assignments: service.NewAssignmentService(service.AssignmentDependencies{
			Engine:     engine,
			TicketRepo: repos.Tickets,
			UserRepo:   repos.Users,
			Dispatcher: dispatcher,
		}),
		Users:          service.NewUserService(cfg.Auth, repos.Users),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, repos.Users),
	}

	a.Fiber = fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(a.Fiber, logger, opts.Metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(a.Fiber, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, opts.Health),
		Auth:           handlers.NewAuthHandler(a.Auth),
		Alerts:         handlers.NewAlertsHandler(a.Alerts),
		Tickets:        handlers.NewTicketsHandler(a.Tickets, a.Assignments),
		Notifications:  handlers.NewNotificationsHandler(notifications),
		Config:         handlers.NewConfigHandler(configService),
		Users:          handlers.NewUsersHandler(a.Users),
		AuthMiddleware: a.AuthMiddleware,
		Metrics:        opts.Metrics,
	})
	return a
}
