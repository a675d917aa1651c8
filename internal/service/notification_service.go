package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/siteops/alertdesk/internal/config"
	"github.com/siteops/alertdesk/internal/domain"
	"github.com/siteops/alertdesk/internal/events"
	"github.com/siteops/alertdesk/internal/notify"
	"github.com/siteops/alertdesk/internal/observability"
	"github.com/siteops/alertdesk/internal/repository"
	apperrors "github.com/siteops/alertdesk/pkg/util/errorutil"
)

// UserPusher delivers a realtime message to a single user.
type UserPusher interface {
	PushToUser(ctx context.Context, userID, event string, data any)
}

// NotificationService turns domain events into per-user notifications.
type NotificationService struct {
	dispatcher    events.Dispatcher
	notifications repository.NotificationRepository
	users         repository.UserRepository
	mailer        notify.Mailer
	pusher        UserPusher
	logger        *zap.Logger
	metrics       *observability.Metrics
	cfg           config.NotificationConfig
	clock         func() time.Time
}

// NotificationDependencies bundles collaborators for the notification service.
type NotificationDependencies struct {
	Dispatcher       events.Dispatcher
	NotificationRepo repository.NotificationRepository
	UserRepo         repository.UserRepository
	Mailer           notify.Mailer
	Pusher           UserPusher
	Logger           *zap.Logger
	Metrics          *observability.Metrics
	Config           config.NotificationConfig
	Clock            func() time.Time
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	mailer := deps.Mailer
	if mailer == nil {
		mailer = notify.NewLogMailer(logger)
	}
	clock := deps.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &NotificationService{
		dispatcher:    deps.Dispatcher,
		notifications: deps.NotificationRepo,
		users:         deps.UserRepo,
		mailer:        mailer,
		pusher:        deps.Pusher,
		logger:        logger,
		metrics:       deps.Metrics,
		cfg:           deps.Config,
		clock:         clock,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventAlertCreated, n.handleAlertCreated)
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketAssigned)
	n.dispatcher.Subscribe(events.EventTicketSLAChanged, n.handleTicketSLAChanged)
}

// AlertRecipientRoles returns who hears about an alert of the given severity.
func AlertRecipientRoles(severity domain.AlertSeverity) []domain.UserRole {
	switch severity {
	case domain.SeverityCritical:
		return []domain.UserRole{domain.RoleOps, domain.RoleAnalyst, domain.RoleManager, domain.RoleAdmin}
	case domain.SeverityHigh:
		return []domain.UserRole{domain.RoleOps, domain.RoleManager, domain.RoleAdmin}
	default:
		return []domain.UserRole{domain.RoleOps, domain.RoleAnalyst}
	}
}

// OnCallRoles receive new-ticket notifications.
var OnCallRoles = []domain.UserRole{domain.RoleOps, domain.RoleManager, domain.RoleAdmin}

func (n *NotificationService) handleAlertCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.AlertPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	alert := payload.Alert

	recipients, err := n.users.ListActiveByRoles(ctx, AlertRecipientRoles(alert.Severity))
	if err != nil {
		return fmt.Errorf("list alert recipients: %w", err)
	}
	for _, user := range recipients {
		n.deliverInApp(ctx, &domain.Notification{
			UserID:  user.ID,
			AlertID: &alert.ID,
			Type:    domain.NotificationAlert,
			Title:   alert.Title,
			Message: alert.Description,
		})
		if n.cfg.EmailEnabled {
			msg, err := notify.AlertEmail(alert, user)
			if err != nil {
				n.logger.Error("render alert email failed", zap.String("alert_id", alert.ID), zap.Error(err))
				continue
			}
			n.deliverEmail(ctx, &domain.Notification{
				UserID:  user.ID,
				AlertID: &alert.ID,
				Type:    domain.NotificationAlert,
				Title:   msg.Subject,
				Message: alert.Description,
			}, msg)
		}
	}
	n.logger.Info("alert notifications sent", zap.String("alert_id", alert.ID), zap.Int("recipients", len(recipients)))
	return nil
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	ticket := payload.Ticket

	recipients, err := n.users.ListActiveByRoles(ctx, OnCallRoles)
	if err != nil {
		return fmt.Errorf("list on-call users: %w", err)
	}
	for _, user := range recipients {
		n.deliverInApp(ctx, &domain.Notification{
			UserID:   user.ID,
			AlertID:  ticket.AlertID,
			TicketID: &ticket.ID,
			Type:     domain.NotificationTicketCreated,
			Title:    fmt.Sprintf("New %s ticket: %s", ticket.Priority, ticket.TicketNumber),
			Message:  ticket.Title,
		})
	}
	return nil
}

func (n *NotificationService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	ticket := payload.Ticket

	user, err := n.users.GetByID(ctx, payload.AssigneeID)
	if err != nil {
		if repository.IsNotFound(err) {
			n.logger.Warn("assignee not found", zap.String("user_id", payload.AssigneeID))
			return nil
		}
		return err
	}
	if !user.IsActive {
		return nil
	}

	n.deliverInApp(ctx, &domain.Notification{
		UserID:   user.ID,
		TicketID: &ticket.ID,
		Type:     domain.NotificationTicketAssigned,
		Title:    "Ticket Assigned: " + ticket.TicketNumber,
		Message:  fmt.Sprintf("You have been assigned ticket %s: %s", ticket.TicketNumber, ticket.Title),
	})
	if n.cfg.EmailEnabled {
		msg, err := notify.TicketEmail(ticket, "assigned", *user)
		if err != nil {
			return err
		}
		n.deliverEmail(ctx, &domain.Notification{
			UserID:   user.ID,
			TicketID: &ticket.ID,
			Type:     domain.NotificationTicketAssigned,
			Title:    msg.Subject,
			Message:  ticket.Title,
		}, msg)
	}
	return nil
}

func (n *NotificationService) handleTicketSLAChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketSLAChangedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	if payload.NewStatus != domain.SLAAtRisk && payload.NewStatus != domain.SLABreached {
		return nil
	}
	ticket := payload.Ticket
	if ticket.Status.Terminal() {
		return nil
	}

	var recipients []domain.User
	if ticket.AssignedToID != nil {
		user, err := n.users.GetByID(ctx, *ticket.AssignedToID)
		if err != nil && !repository.IsNotFound(err) {
			return err
		}
		if user != nil && user.IsActive {
			recipients = append(recipients, *user)
		}
	}
	if len(recipients) == 0 {
		managers, err := n.users.ListActiveByRoles(ctx, []domain.UserRole{domain.RoleManager, domain.RoleAdmin})
		if err != nil {
			return err
		}
		recipients = managers
	}

	title := fmt.Sprintf("SLA %s: %s", payload.NewStatus, ticket.TicketNumber)
	message := fmt.Sprintf("Ticket %s (%s) is due %s", ticket.TicketNumber, ticket.Title, ticket.SLADeadline.UTC().Format(time.RFC3339))
	for _, user := range recipients {
		n.deliverInApp(ctx, &domain.Notification{
			UserID:   user.ID,
			TicketID: &ticket.ID,
			Type:     domain.NotificationSLAWarning,
			Title:    title,
			Message:  message,
		})
	}
	return nil
}

// deliverInApp stores an in-app record and pushes it to the user's socket room.
func (n *NotificationService) deliverInApp(ctx context.Context, record *domain.Notification) {
	now := n.clock()
	record.Channel = domain.ChannelInApp
	record.Status = domain.NotificationSent
	record.SentAt = &now
	if err := n.notifications.Create(ctx, record); err != nil {
		n.logger.Error("store notification failed", zap.String("user_id", record.UserID), zap.Error(err))
		n.metrics.NotificationRecorded(string(domain.ChannelInApp), string(domain.NotificationFailed))
		return
	}
	n.metrics.NotificationRecorded(string(domain.ChannelInApp), string(domain.NotificationSent))
	if n.pusher != nil {
		n.pusher.PushToUser(ctx, record.UserID, "notification:new", realtimeNotification(record))
	}
}

func realtimeNotification(record *domain.Notification) map[string]any {
	return map[string]any{
		"id":         record.ID,
		"type":       record.Type,
		"title":      record.Title,
		"message":    record.Message,
		"alert_id":   record.AlertID,
		"ticket_id":  record.TicketID,
		"created_at": record.CreatedAt,
	}
}

// deliverEmail stores a PENDING email record, sends it and records the outcome.
func (n *NotificationService) deliverEmail(ctx context.Context, record *domain.Notification, msg notify.Message) {
	record.Channel = domain.ChannelEmail
	record.Status = domain.NotificationPending
	if err := n.notifications.Create(ctx, record); err != nil {
		n.logger.Error("store email notification failed", zap.String("user_id", record.UserID), zap.Error(err))
		return
	}

	status := domain.NotificationSent
	var sentAt *time.Time
	if err := n.mailer.Send(ctx, msg); err != nil {
		status = domain.NotificationFailed
		n.logger.Error("send email failed", zap.String("user_id", record.UserID), zap.String("subject", msg.Subject), zap.Error(err))
	} else {
		now := n.clock()
		sentAt = &now
	}
	if err := n.notifications.UpdateStatus(ctx, record.ID, status, sentAt); err != nil {
		n.logger.Error("update email notification failed", zap.String("notification_id", record.ID), zap.Error(err))
	}
	record.Status = status
	record.SentAt = sentAt
	n.metrics.NotificationRecorded(string(domain.ChannelEmail), string(status))
}

// ListForUser pages through the caller's notifications.
func (n *NotificationService) ListForUser(ctx context.Context, filter repository.NotificationFilter) ([]domain.Notification, int, error) {
	return n.notifications.List(ctx, filter)
}

// MarkRead marks one of the caller's notifications as read. Other users'
// notifications are reported as not found.
func (n *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) (*domain.Notification, error) {
	record, err := n.notifications.GetByID(ctx, notificationID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NewNotFound("notification", map[string]any{"id": notificationID})
		}
		return nil, err
	}
	if record.UserID != userID {
		return nil, apperrors.NewNotFound("notification", map[string]any{"id": notificationID})
	}
	if record.Status == domain.NotificationRead {
		return record, nil
	}
	now := n.clock()
	if err := n.notifications.MarkRead(ctx, notificationID, now); err != nil {
		return nil, err
	}
	record.Status = domain.NotificationRead
	record.ReadAt = &now
	return record, nil
}
