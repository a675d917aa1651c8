package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siteops/alertdesk/internal/domain"
	"github.com/siteops/alertdesk/internal/escalation"
	apperrors "github.com/siteops/alertdesk/pkg/util/errorutil"
)

func openTicket(t *testing.T, h *harness, actorID string) *domain.Ticket {
	t.Helper()
	ticket, err := h.tickets.Create(context.Background(), actorID, escalation.TicketInput{
		Title:    "Monitoring mismatch",
		Priority: domain.TicketPriorityMedium,
	})
	require.NoError(t, err)
	return ticket
}

func TestSelfAssign(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()
	ops := h.seedUser(t, "ops", domain.RoleOps, true)
	viewer := h.seedUser(t, "viewer", domain.RoleViewer, true)
	ticket := openTicket(t, h, ops.ID)

	_, err := h.assignment.SelfAssign(ctx, viewer, ticket.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
	_, err = h.assignment.SelfAssign(ctx, nil, ticket.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))

	assigned, err := h.assignment.SelfAssign(ctx, ops, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, &ops.ID, assigned.AssignedToID)
	assert.Equal(t, domain.TicketStatusAssigned, assigned.Status)
	assert.Contains(t, notificationTypes(h.notificationsFor(t, ops.ID), domain.ChannelInApp), domain.NotificationTicketAssigned)
}

func TestAssignRequiresManager(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()
	ops := h.seedUser(t, "ops", domain.RoleOps, true)
	manager := h.seedUser(t, "manager", domain.RoleManager, true)
	viewer := h.seedUser(t, "viewer", domain.RoleViewer, true)
	idle := h.seedUser(t, "idle", domain.RoleOps, false)
	ticket := openTicket(t, h, manager.ID)

	_, err := h.assignment.Assign(ctx, ops, ticket.ID, ops.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
	_, err = h.assignment.Assign(ctx, manager, ticket.ID, idle.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
	_, err = h.assignment.Assign(ctx, manager, ticket.ID, viewer.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	_, err = h.assignment.Assign(ctx, manager, ticket.ID, "nobody")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	assigned, err := h.assignment.Assign(ctx, manager, ticket.ID, ops.ID)
	require.NoError(t, err)
	assert.Equal(t, &ops.ID, assigned.AssignedToID)
}

func TestAutoAssignPicksActiveOps(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()
	manager := h.seedUser(t, "manager", domain.RoleManager, true)
	ticket := openTicket(t, h, manager.ID)

	_, err := h.assignment.AutoAssign(ctx, manager, ticket.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	first := h.seedUser(t, "first", domain.RoleOps, true)
	second := h.seedUser(t, "second", domain.RoleOps, true)
	h.seedUser(t, "idle", domain.RoleOps, false)

	assigned, err := h.assignment.AutoAssign(ctx, manager, ticket.ID)
	require.NoError(t, err)
	require.NotNil(t, assigned.AssignedToID)
	assert.Contains(t, []string{first.ID, second.ID}, *assigned.AssignedToID)
}

func TestSelectIndexIsStable(t *testing.T) {
	assert.Equal(t, 0, selectIndex("anything", 0))
	assert.Equal(t, selectIndex("ticket-1", 3), selectIndex("ticket-1", 3))
	assert.Less(t, selectIndex("ticket-1", 3), 3)
}
