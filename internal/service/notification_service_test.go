package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siteops/alertdesk/internal/domain"
	"github.com/siteops/alertdesk/internal/escalation"
	"github.com/siteops/alertdesk/internal/events"
	"github.com/siteops/alertdesk/internal/repository"
	apperrors "github.com/siteops/alertdesk/pkg/util/errorutil"
)

func TestAlertRecipientRoles(t *testing.T) {
	assert.ElementsMatch(t,
		[]domain.UserRole{domain.RoleOps, domain.RoleAnalyst, domain.RoleManager, domain.RoleAdmin},
		AlertRecipientRoles(domain.SeverityCritical))
	assert.ElementsMatch(t,
		[]domain.UserRole{domain.RoleOps, domain.RoleManager, domain.RoleAdmin},
		AlertRecipientRoles(domain.SeverityHigh))
	for _, sev := range []domain.AlertSeverity{domain.SeverityMedium, domain.SeverityLow, domain.SeverityInfo} {
		assert.ElementsMatch(t, []domain.UserRole{domain.RoleOps, domain.RoleAnalyst}, AlertRecipientRoles(sev), sev)
	}
}

func TestCriticalAlertNotifiesByRole(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()
	ops := h.seedUser(t, "ops", domain.RoleOps, true)
	analyst := h.seedUser(t, "analyst", domain.RoleAnalyst, true)
	manager := h.seedUser(t, "manager", domain.RoleManager, true)
	viewer := h.seedUser(t, "viewer", domain.RoleViewer, true)
	idle := h.seedUser(t, "idle", domain.RoleOps, false)

	detail, err := h.alerts.Create(ctx, ops.ID, criticalAlert())
	require.NoError(t, err)
	require.NotNil(t, detail.Ticket)
	assert.Equal(t, "TKT-202603-00001", detail.Ticket.TicketNumber)

	assert.ElementsMatch(t,
		[]domain.NotificationType{domain.NotificationAlert, domain.NotificationTicketCreated},
		notificationTypes(h.notificationsFor(t, ops.ID), domain.ChannelInApp))
	assert.ElementsMatch(t,
		[]domain.NotificationType{domain.NotificationAlert},
		notificationTypes(h.notificationsFor(t, analyst.ID), domain.ChannelInApp))
	assert.ElementsMatch(t,
		[]domain.NotificationType{domain.NotificationAlert, domain.NotificationTicketCreated},
		notificationTypes(h.notificationsFor(t, manager.ID), domain.ChannelInApp))
	assert.Empty(t, h.notificationsFor(t, viewer.ID))
	assert.Empty(t, h.notificationsFor(t, idle.ID))

	assert.ElementsMatch(t,
		[]string{"ops@example.com", "analyst@example.com", "manager@example.com"},
		h.mailer.recipients())
	for _, n := range h.notificationsFor(t, ops.ID) {
		assert.Equal(t, domain.NotificationSent, n.Status)
		assert.NotNil(t, n.SentAt)
	}

	var opsPushes int
	for _, p := range h.pusher.items {
		if p.userID == ops.ID {
			assert.Equal(t, "notification:new", p.event)
			opsPushes++
		}
	}
	assert.Equal(t, 2, opsPushes)
}

func TestMediumAlertNotifiesOpsAndAnalystsOnly(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()
	ops := h.seedUser(t, "ops", domain.RoleOps, true)
	analyst := h.seedUser(t, "analyst", domain.RoleAnalyst, true)
	manager := h.seedUser(t, "manager", domain.RoleManager, true)

	in := criticalAlert()
	in.Severity = domain.SeverityMedium
	detail, err := h.alerts.Create(ctx, ops.ID, in)
	require.NoError(t, err)
	assert.Nil(t, detail.Ticket)

	assert.Len(t, h.notificationsFor(t, ops.ID), 1)
	assert.Len(t, h.notificationsFor(t, analyst.ID), 1)
	assert.Empty(t, h.notificationsFor(t, manager.ID))
	assert.Empty(t, h.mailer.recipients(), "email disabled")
}

func TestEmailFailureMarksRecordFailed(t *testing.T) {
	h := newHarness(t, true)
	h.mailer.err = errSMTP
	ctx := context.Background()
	ops := h.seedUser(t, "ops", domain.RoleOps, true)

	in := criticalAlert()
	in.Severity = domain.SeverityHigh
	detail, err := h.alerts.Create(ctx, ops.ID, in)
	require.NoError(t, err)
	require.NotNil(t, detail.Ticket, "delivery failures do not affect escalation")

	var email, inApp int
	for _, n := range h.notificationsFor(t, ops.ID) {
		switch n.Channel {
		case domain.ChannelEmail:
			email++
			assert.Equal(t, domain.NotificationFailed, n.Status)
			assert.Nil(t, n.SentAt)
		case domain.ChannelInApp:
			inApp++
			assert.Equal(t, domain.NotificationSent, n.Status)
		}
	}
	assert.Equal(t, 1, email)
	assert.Equal(t, 2, inApp)
}

func TestTicketAssignmentNotifiesAssignee(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()
	ops := h.seedUser(t, "ops", domain.RoleOps, true)
	manager := h.seedUser(t, "manager", domain.RoleManager, true)

	ticket, err := h.tickets.Create(ctx, manager.ID, escalation.TicketInput{
		Title:        "Replace inverter fuse",
		Priority:     domain.TicketPriorityHigh,
		AssignedToID: &ops.ID,
	})
	require.NoError(t, err)

	assert.ElementsMatch(t,
		[]domain.NotificationType{domain.NotificationTicketCreated, domain.NotificationTicketAssigned},
		notificationTypes(h.notificationsFor(t, ops.ID), domain.ChannelInApp))
	assert.ElementsMatch(t,
		[]domain.NotificationType{domain.NotificationTicketCreated},
		notificationTypes(h.notificationsFor(t, manager.ID), domain.ChannelInApp))

	require.Len(t, h.mailer.sent, 1)
	assert.Equal(t, "ops@example.com", h.mailer.sent[0].To)
	assert.Equal(t, "Ticket assigned: "+ticket.TicketNumber, h.mailer.sent[0].Subject)
}

func TestSLAWarningGoesToAssignee(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()
	ops := h.seedUser(t, "ops", domain.RoleOps, true)
	manager := h.seedUser(t, "manager", domain.RoleManager, true)

	ticket, err := h.tickets.Create(ctx, manager.ID, escalation.TicketInput{
		Title:        "Battery bank below threshold",
		Priority:     domain.TicketPriorityHigh,
		AssignedToID: &ops.ID,
	})
	require.NoError(t, err)

	h.clock.Advance(6*time.Hour + time.Minute)
	detail, err := h.tickets.GetDetail(ctx, ticket.ID, domain.RoleOps)
	require.NoError(t, err)
	assert.Equal(t, domain.SLAAtRisk, detail.Ticket.SLAStatus)

	assert.Contains(t, notificationTypes(h.notificationsFor(t, ops.ID), domain.ChannelInApp), domain.NotificationSLAWarning)
	assert.NotContains(t, notificationTypes(h.notificationsFor(t, manager.ID), domain.ChannelInApp), domain.NotificationSLAWarning)
}

func TestSLAWarningFallsBackToManagers(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()
	manager := h.seedUser(t, "manager", domain.RoleManager, true)

	ticket, err := h.tickets.Create(ctx, manager.ID, escalation.TicketInput{
		Title:    "Unowned outage prediction",
		Priority: domain.TicketPriorityCritical,
	})
	require.NoError(t, err)

	h.clock.Advance(4*time.Hour + time.Minute)
	result, err := h.engine.SweepSLA(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, result.Updated)
	events.PublishAll(ctx, h.notifications.dispatcher, result.Effects)

	warnings := 0
	for _, n := range h.notificationsFor(t, manager.ID) {
		if n.Type == domain.NotificationSLAWarning {
			warnings++
			assert.Equal(t, &ticket.ID, n.TicketID)
			assert.Contains(t, n.Title, string(domain.SLABreached))
		}
	}
	assert.Equal(t, 1, warnings)
}

func TestMarkReadOnlyOwnNotifications(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()
	ops := h.seedUser(t, "ops", domain.RoleOps, true)
	analyst := h.seedUser(t, "analyst", domain.RoleAnalyst, true)

	in := criticalAlert()
	in.Severity = domain.SeverityLow
	_, err := h.alerts.Create(ctx, ops.ID, in)
	require.NoError(t, err)

	mine := h.notificationsFor(t, ops.ID)
	require.Len(t, mine, 1)

	_, err = h.notifications.MarkRead(ctx, analyst.ID, mine[0].ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = h.notifications.MarkRead(ctx, ops.ID, "missing")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	read, err := h.notifications.MarkRead(ctx, ops.ID, mine[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.NotificationRead, read.Status)
	assert.Equal(t, t0, *read.ReadAt)

	again, err := h.notifications.MarkRead(ctx, ops.ID, mine[0].ID)
	require.NoError(t, err)
	assert.Equal(t, t0, *again.ReadAt)

	status := domain.NotificationRead
	items, total, err := h.notifications.ListForUser(ctx, repository.NotificationFilter{UserID: ops.ID, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, items, 1)
}
