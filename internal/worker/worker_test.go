package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/siteops/alertdesk/internal/domain"
	"github.com/siteops/alertdesk/internal/escalation"
	"github.com/siteops/alertdesk/internal/events"
	"github.com/siteops/alertdesk/internal/realtime"
	"github.com/siteops/alertdesk/internal/repository/memory"
	"github.com/siteops/alertdesk/internal/sla"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type capturingPublisher struct {
	mu   sync.Mutex
	envs []realtime.Envelope
}

func (p *capturingPublisher) Publish(_ context.Context, env realtime.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.envs = append(p.envs, env)
	return nil
}

func newEngine(clock *fakeClock) *escalation.Engine {
	repos := memory.NewSet()
	return escalation.NewEngine(escalation.Dependencies{
		Alerts:  repos.Alerts,
		Tickets: repos.Tickets,
		History: repos.History,
		Policy:  sla.StaticSource(sla.DefaultPolicy()),
		Logger:  zap.NewNop(),
		Clock:   clock.Now,
	})
}

func TestSLASweeperPublishesStandingChanges(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	engine := newEngine(clock)
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())

	var changes []events.TicketSLAChangedPayload
	dispatcher.Subscribe(events.EventTicketSLAChanged, func(_ context.Context, e events.Event) error {
		changes = append(changes, e.Payload.(events.TicketSLAChangedPayload))
		return nil
	})

	_, err := engine.CreateTicket(ctx, escalation.TicketInput{Title: "Battery low", Priority: domain.TicketPriorityCritical}, events.SystemActor())
	require.NoError(t, err)

	sweeper := NewSLASweeper(engine, dispatcher, zap.NewNop(), time.Minute)

	result, err := sweeper.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Updated)
	assert.Empty(t, changes)

	clock.Advance(2*time.Hour + time.Minute)
	result, err = sweeper.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	require.Len(t, changes, 1)
	assert.Equal(t, domain.SLAOnTime, changes[0].OldStatus)
	assert.Equal(t, domain.SLAAtRisk, changes[0].NewStatus)

	clock.Advance(2 * time.Hour)
	result, err = sweeper.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	require.Len(t, changes, 2)
	assert.Equal(t, domain.SLABreached, changes[1].NewStatus)

	result, err = sweeper.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Checked, "breached tickets are no longer candidates")
}

func TestStartSLASweepRejectsBadSchedule(t *testing.T) {
	sweeper := NewSLASweeper(newEngine(&fakeClock{now: time.Now()}), nil, nil, 0)

	_, err := StartSLASweep(context.Background(), sweeper, "every now and then")
	assert.Error(t, err)

	scheduler, err := StartSLASweep(context.Background(), sweeper, "")
	require.NoError(t, err)
	entries := scheduler.Entries()
	require.Len(t, entries, 1)
	<-scheduler.Stop().Done()
}

func TestStartNotificationWorkerWiresRealtime(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	publisher := &capturingPublisher{}

	StartNotificationWorker(dispatcher, nil, publisher)

	alert := domain.Alert{ID: "a1", Severity: domain.SeverityCritical, Status: domain.AlertStatusOpen, CreatedAt: time.Now()}
	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{
		Type:     events.EventAlertCreated,
		EntityID: alert.ID,
		Payload:  events.AlertPayload{Alert: alert},
	}))

	require.Len(t, publisher.envs, 1)
	assert.Equal(t, realtime.EventAlertNew, publisher.envs[0].Event)
	assert.Equal(t, realtime.TopicAlerts, publisher.envs[0].Topic)
}
