package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siteops/alertdesk/internal/domain"
	"github.com/siteops/alertdesk/internal/escalation"
	"github.com/siteops/alertdesk/internal/sla"
	apperrors "github.com/siteops/alertdesk/pkg/util/errorutil"
)

func TestConfigServiceDefaults(t *testing.T) {
	h := newHarness(t, false)

	policy, err := h.config.GetSLA(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sla.DefaultPolicy().Hours, policy.Hours)
}

func TestUpdateSLAChangesNewDeadlines(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()
	admin := h.seedUser(t, "admin", domain.RoleAdmin, true)

	policy, err := h.config.UpdateSLA(ctx, admin.ID, map[domain.TicketPriority]int{domain.TicketPriorityCritical: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, policy.HoursFor(domain.TicketPriorityCritical))
	assert.Equal(t, 8, policy.HoursFor(domain.TicketPriorityHigh))

	ticket, err := h.tickets.Create(ctx, admin.ID, escalation.TicketInput{
		Title:    "Outage predicted",
		Priority: domain.TicketPriorityCritical,
	})
	require.NoError(t, err)
	assert.Equal(t, t0.Add(time.Hour), ticket.SLADeadline)
}

func TestUpdateSLARejectsInvalidHoursAtomically(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	_, err := h.config.UpdateSLA(ctx, "admin", map[domain.TicketPriority]int{
		domain.TicketPriorityHigh: 2,
		domain.TicketPriorityLow:  0,
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = h.config.UpdateSLA(ctx, "admin", map[domain.TicketPriority]int{"URGENT": 2})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = h.config.UpdateSLA(ctx, "admin", nil)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	policy, err := h.config.GetSLA(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, policy.HoursFor(domain.TicketPriorityHigh))
}

func TestCorruptStoredSLAFallsBackToDefaults(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()
	require.NoError(t, h.repos.SystemConfig.Upsert(ctx, []domain.ConfigEntry{
		{Key: sla.ConfigKeyPrefix + "HIGH", Value: "soon"},
	}))

	policy, err := h.config.Policy(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, policy.HoursFor(domain.TicketPriorityHigh))
}
