package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siteops/alertdesk/internal/domain"
	"github.com/siteops/alertdesk/internal/repository"
)

func numberer(seq int) string { return fmt.Sprintf("TKT-202603-%05d", seq) }

func strPtr(s string) *string { return &s }

func TestTicketCreateWithSequenceEnforcesAlertUniqueness(t *testing.T) {
	ctx := context.Background()
	repo := NewTicketRepository()

	first := &domain.Ticket{AlertID: strPtr("alert-1"), Title: "a", Status: domain.TicketStatusOpen}
	require.NoError(t, repo.CreateWithSequence(ctx, first, "202603", numberer))
	assert.Equal(t, "TKT-202603-00001", first.TicketNumber)
	assert.NotEmpty(t, first.ID)

	dup := &domain.Ticket{AlertID: strPtr("alert-1"), Title: "b", Status: domain.TicketStatusOpen}
	err := repo.CreateWithSequence(ctx, dup, "202603", numberer)
	assert.ErrorIs(t, err, repository.ErrConflict)

	// the failed insert must not consume a number
	next := &domain.Ticket{Title: "c", Status: domain.TicketStatusOpen}
	require.NoError(t, repo.CreateWithSequence(ctx, next, "202603", numberer))
	assert.Equal(t, "TKT-202603-00002", next.TicketNumber)

	found, err := repo.GetByAlertID(ctx, "alert-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)
}

func TestTicketSequencesArePerPeriod(t *testing.T) {
	ctx := context.Background()
	repo := NewTicketRepository()

	a, err := repo.NextSequenceForMonth(ctx, "202603")
	require.NoError(t, err)
	b, err := repo.NextSequenceForMonth(ctx, "202603")
	require.NoError(t, err)
	c, err := repo.NextSequenceForMonth(ctx, "202604")
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 1}, []int{a, b, c})
}

func TestTicketGetReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewTicketRepository()
	ticket := &domain.Ticket{Title: "x", Tags: []string{"a"}, Status: domain.TicketStatusOpen}
	require.NoError(t, repo.CreateWithSequence(ctx, ticket, "202603", numberer))

	got, err := repo.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	got.Tags[0] = "mutated"

	again, err := repo.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, again.Tags)
}

func TestTicketNotFound(t *testing.T) {
	repo := NewTicketRepository()
	_, err := repo.GetByID(context.Background(), "missing")
	assert.True(t, repository.IsNotFound(err))
	changed, err := repo.UpdateSLAStatus(context.Background(), "missing", domain.SLABreached)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.True(t, repository.IsNotFound(repo.Update(context.Background(), &domain.Ticket{ID: "missing"})))
}

func TestTicketUpdateSLAStatusOnlyWorsensOpenTickets(t *testing.T) {
	ctx := context.Background()
	repo := NewTicketRepository()
	open := &domain.Ticket{Title: "open", Status: domain.TicketStatusInProgress, SLAStatus: domain.SLAOnTime}
	resolved := &domain.Ticket{Title: "resolved", Status: domain.TicketStatusResolved, SLAStatus: domain.SLAAtRisk}
	require.NoError(t, repo.CreateWithSequence(ctx, open, "202603", numberer))
	require.NoError(t, repo.CreateWithSequence(ctx, resolved, "202603", numberer))

	changed, err := repo.UpdateSLAStatus(ctx, open.ID, domain.SLABreached)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.UpdateSLAStatus(ctx, open.ID, domain.SLAAtRisk)
	require.NoError(t, err)
	assert.False(t, changed, "standing never improves")

	changed, err = repo.UpdateSLAStatus(ctx, resolved.ID, domain.SLABreached)
	require.NoError(t, err)
	assert.False(t, changed)

	stored, err := repo.GetByID(ctx, resolved.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SLAAtRisk, stored.SLAStatus)
}

func TestTicketUpdateRejectsStaleWrites(t *testing.T) {
	ctx := context.Background()
	repo := NewTicketRepository()
	ticket := &domain.Ticket{Title: "t", Status: domain.TicketStatusOpen}
	require.NoError(t, repo.CreateWithSequence(ctx, ticket, "202603", numberer))

	first, err := repo.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, ticket.ID)
	require.NoError(t, err)

	first.Title = "first"
	require.NoError(t, repo.Update(ctx, first))
	assert.True(t, first.UpdatedAt.After(second.UpdatedAt))

	second.Title = "second"
	assert.ErrorIs(t, repo.Update(ctx, second), repository.ErrStale)

	stored, err := repo.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", stored.Title)
}

func TestTicketNumberCollisionIsNotAnAlertConflict(t *testing.T) {
	ctx := context.Background()
	repo := NewTicketRepository()
	fixed := func(int) string { return "TKT-202603-00001" }
	require.NoError(t, repo.CreateWithSequence(ctx, &domain.Ticket{Title: "a", Status: domain.TicketStatusOpen}, "202603", fixed))

	err := repo.CreateWithSequence(ctx, &domain.Ticket{AlertID: strPtr("alert-9"), Title: "b", Status: domain.TicketStatusOpen}, "202603", fixed)
	assert.ErrorIs(t, err, repository.ErrDuplicateNumber)
	assert.NotErrorIs(t, err, repository.ErrConflict)
}

func TestTicketListFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewTicketRepository()
	assignee := "user-1"
	for i, p := range []domain.TicketPriority{domain.TicketPriorityCritical, domain.TicketPriorityLow, domain.TicketPriorityCritical} {
		ticket := &domain.Ticket{Title: fmt.Sprintf("Battery issue %d", i), Priority: p, Status: domain.TicketStatusOpen, SLAStatus: domain.SLAOnTime}
		if i == 2 {
			ticket.AssignedToID = &assignee
		}
		require.NoError(t, repo.CreateWithSequence(ctx, ticket, "202603", numberer))
	}

	list, total, err := repo.List(ctx, repository.TicketFilter{Priorities: []domain.TicketPriority{domain.TicketPriorityCritical}})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, "Battery issue 2", list[0].Title, "newest first")

	_, total, err = repo.List(ctx, repository.TicketFilter{AssignedToID: &assignee})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	term := "ISSUE 1"
	list, _, err = repo.List(ctx, repository.TicketFilter{SearchTerm: &term})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.TicketPriorityLow, list[0].Priority)

	list, total, err = repo.List(ctx, repository.TicketFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, list, 1)
}

func TestListSLACandidates(t *testing.T) {
	ctx := context.Background()
	repo := NewTicketRepository()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mk := func(deadline time.Time, status domain.TicketStatus, sla domain.SLAStatus) *domain.Ticket {
		ticket := &domain.Ticket{Title: "t", SLADeadline: deadline, Status: status, SLAStatus: sla}
		require.NoError(t, repo.CreateWithSequence(ctx, ticket, "202603", numberer))
		return ticket
	}
	due := mk(base.Add(time.Hour), domain.TicketStatusOpen, domain.SLAOnTime)
	overdue := mk(base.Add(-time.Hour), domain.TicketStatusInProgress, domain.SLAAtRisk)
	mk(base.Add(-time.Hour), domain.TicketStatusOpen, domain.SLABreached)
	mk(base.Add(-time.Hour), domain.TicketStatusResolved, domain.SLAOnTime)
	mk(base.Add(10*time.Hour), domain.TicketStatusOpen, domain.SLAOnTime)

	list, err := repo.ListSLACandidates(ctx, base.Add(2*time.Hour), 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, overdue.ID, list[0].ID)
	assert.Equal(t, due.ID, list[1].ID)
}

func TestHistoryKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewTicketHistoryRepository()
	actions := []domain.HistoryAction{domain.ActionCreated, domain.ActionStatusChanged, domain.ActionAssigned}
	for _, action := range actions {
		require.NoError(t, repo.Create(ctx, &domain.TicketHistory{TicketID: "t1", Action: action}))
	}
	require.NoError(t, repo.Create(ctx, &domain.TicketHistory{TicketID: "t2", Action: domain.ActionCreated}))

	entries, err := repo.ListByTicket(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i, action := range actions {
		assert.Equal(t, action, entries[i].Action)
	}
}

func TestUserEmailUniqueCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()
	require.NoError(t, repo.Create(ctx, &domain.User{Email: "Ops@Example.com", Role: domain.RoleOps, IsActive: true}))
	err := repo.Create(ctx, &domain.User{Email: "ops@example.com"})
	assert.ErrorIs(t, err, repository.ErrConflict)

	user, err := repo.GetByEmail(ctx, "OPS@example.com")
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", user.Email)
}

func TestListActiveByRoles(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()
	require.NoError(t, repo.Create(ctx, &domain.User{Email: "a@x", Role: domain.RoleOps, IsActive: true}))
	require.NoError(t, repo.Create(ctx, &domain.User{Email: "b@x", Role: domain.RoleOps, IsActive: false}))
	require.NoError(t, repo.Create(ctx, &domain.User{Email: "c@x", Role: domain.RoleViewer, IsActive: true}))

	users, err := repo.ListActiveByRoles(ctx, []domain.UserRole{domain.RoleOps, domain.RoleAdmin})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "a@x", users[0].Email)
}

func TestNotificationLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository()
	n := &domain.Notification{UserID: "u1", Type: domain.NotificationAlert, Channel: domain.ChannelInApp, Status: domain.NotificationPending}
	require.NoError(t, repo.Create(ctx, n))
	require.NoError(t, repo.Create(ctx, &domain.Notification{UserID: "u2", Status: domain.NotificationPending}))

	sent := time.Now()
	require.NoError(t, repo.UpdateStatus(ctx, n.ID, domain.NotificationSent, &sent))
	require.NoError(t, repo.MarkRead(ctx, n.ID, sent))

	got, err := repo.GetByID(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.NotificationRead, got.Status)
	assert.NotNil(t, got.ReadAt)
	assert.NotNil(t, got.SentAt)

	status := domain.NotificationRead
	list, total, err := repo.List(ctx, repository.NotificationFilter{UserID: "u1", Status: &status})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, n.ID, list[0].ID)
}

func TestSystemConfigUpsertAndPrefix(t *testing.T) {
	ctx := context.Background()
	repo := NewSystemConfigRepository()
	require.NoError(t, repo.Upsert(ctx, []domain.ConfigEntry{
		{Key: "sla.hours.HIGH", Value: "6"},
		{Key: "sla.hours.CRITICAL", Value: "2"},
		{Key: "other", Value: "x"},
	}))
	require.NoError(t, repo.Upsert(ctx, []domain.ConfigEntry{{Key: "sla.hours.HIGH", Value: "5"}}))

	entries, err := repo.ListByPrefix(ctx, "sla.hours.")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "sla.hours.CRITICAL", entries[0].Key)
	assert.Equal(t, "5", entries[1].Value)
}
