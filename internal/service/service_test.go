package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/siteops/alertdesk/internal/auth"
	"github.com/siteops/alertdesk/internal/config"
	"github.com/siteops/alertdesk/internal/domain"
	"github.com/siteops/alertdesk/internal/escalation"
	"github.com/siteops/alertdesk/internal/events"
	"github.com/siteops/alertdesk/internal/notify"
	"github.com/siteops/alertdesk/internal/repository"
	"github.com/siteops/alertdesk/internal/repository/memory"
	"github.com/siteops/alertdesk/internal/sla"
)

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg notify.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.sent))
	for i, msg := range m.sent {
		out[i] = msg.To
	}
	return out
}

type pushed struct {
	userID string
	event  string
}

type recordingPusher struct {
	mu    sync.Mutex
	items []pushed
}

func (p *recordingPusher) PushToUser(_ context.Context, userID, event string, _ any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = append(p.items, pushed{userID: userID, event: event})
}

type harness struct {
	repos         repository.Set
	clock         *testClock
	engine        *escalation.Engine
	config        *ConfigService
	alerts        *AlertService
	tickets       *TicketService
	assignment    *AssignmentService
	notifications *NotificationService
	auth          *AuthService
	users         *UserService
	mailer        *recordingMailer
	pusher        *recordingPusher
}

var testAuthConfig = config.AuthConfig{
	JWTSecret:              "test-secret",
	AccessTokenTTLMinutes:  15,
	RefreshTokenTTLMinutes: 60,
	BcryptCost:             bcrypt.MinCost,
}

func newHarness(t *testing.T, emailEnabled bool) *harness {
	t.Helper()
	repos := memory.NewSet()
	clock := &testClock{now: t0}
	logger := zap.NewNop()
	dispatcher := events.NewInMemoryDispatcher(logger)
	mailer := &recordingMailer{}
	pusher := &recordingPusher{}

	configService := NewConfigService(repos.SystemConfig, sla.DefaultPolicy(), logger)
	engine := escalation.NewEngine(escalation.Dependencies{
		Alerts:  repos.Alerts,
		Tickets: repos.Tickets,
		History: repos.History,
		Policy:  configService,
		Logger:  logger,
		Clock:   clock.Now,
	})
	notifications := NewNotificationService(NotificationDependencies{
		Dispatcher:       dispatcher,
		NotificationRepo: repos.Notifications,
		UserRepo:         repos.Users,
		Mailer:           mailer,
		Pusher:           pusher,
		Logger:           logger,
		Config:           config.NotificationConfig{EmailEnabled: emailEnabled},
		Clock:            clock.Now,
	})
	notifications.RegisterHandlers()

	return &harness{
		repos:  repos,
		clock:  clock,
		engine: engine,
		config: configService,
		alerts: NewAlertService(AlertDependencies{
			Engine:     engine,
			AlertRepo:  repos.Alerts,
			TicketRepo: repos.Tickets,
			Dispatcher: dispatcher,
		}),
		tickets: NewTicketService(TicketDependencies{
			Engine:      engine,
			TicketRepo:  repos.Tickets,
			CommentRepo: repos.Comments,
			HistoryRepo: repos.History,
			UserRepo:    repos.Users,
			Dispatcher:  dispatcher,
			Logger:      logger,
		}),
		assignment: NewAssignmentService(AssignmentDependencies{
			Engine:     engine,
			TicketRepo: repos.Tickets,
			UserRepo:   repos.Users,
			Dispatcher: dispatcher,
		}),
		notifications: notifications,
		auth: NewAuthService(testAuthConfig, AuthDependencies{
			UserRepo: repos.Users,
			Logger:   logger,
			Clock:    clock.Now,
		}),
		users:  NewUserService(testAuthConfig, repos.Users),
		mailer: mailer,
		pusher: pusher,
	}
}

func (h *harness) seedUser(t *testing.T, name string, role domain.UserRole, active bool) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword("correct-horse", bcrypt.MinCost)
	require.NoError(t, err)
	user := &domain.User{
		Name:         name,
		Email:        name + "@example.com",
		PasswordHash: hash,
		Role:         role,
		IsActive:     active,
	}
	require.NoError(t, h.repos.Users.Create(context.Background(), user))
	return user
}

func (h *harness) notificationsFor(t *testing.T, userID string) []domain.Notification {
	t.Helper()
	items, _, err := h.notifications.ListForUser(context.Background(), repository.NotificationFilter{UserID: userID, Limit: 100})
	require.NoError(t, err)
	return items
}

func notificationTypes(items []domain.Notification, channel domain.NotificationChannel) []domain.NotificationType {
	var out []domain.NotificationType
	for _, n := range items {
		if n.Channel == channel {
			out = append(out, n.Type)
		}
	}
	return out
}

func criticalAlert() escalation.AlertInput {
	detected, expected := 42.0, 20.0
	return escalation.AlertInput{
		Category:      domain.CategoryConsumptionAnomaly,
		Severity:      domain.SeverityCritical,
		Title:         "Consumption spike at site 17",
		Description:   "Detected 42kWh against 20kWh expected",
		DetectedValue: &detected,
		ExpectedValue: &expected,
	}
}

var errSMTP = errors.New("smtp unavailable")
