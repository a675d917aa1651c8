package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDispatcherDeliversInSubscriptionOrder(t *testing.T) {
	d := NewInMemoryDispatcher(zap.NewNop())
	var calls []string

	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls = append(calls, "first")
		return nil
	})
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventTicketUpdated, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketCreated}))
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestDispatcherSwallowsHandlerFailures(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	delivered := false

	d.Subscribe(EventAlertCreated, func(context.Context, Event) error {
		return errors.New("smtp down")
	})
	d.Subscribe(EventAlertCreated, func(context.Context, Event) error {
		panic("boom")
	})
	d.Subscribe(EventAlertCreated, func(_ context.Context, e Event) error {
		delivered = true
		assert.NotEmpty(t, e.ID)
		assert.False(t, e.Timestamp.IsZero())
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventAlertCreated})
	require.NoError(t, err)
	assert.True(t, delivered)
}

func TestPublishAllKeepsOrder(t *testing.T) {
	d := NewInMemoryDispatcher(zap.NewNop())
	var seen []EventType
	record := func(_ context.Context, e Event) error {
		seen = append(seen, e.Type)
		return nil
	}
	d.Subscribe(EventTicketAssigned, record)
	d.Subscribe(EventTicketUpdated, record)

	PublishAll(context.Background(), d, []Event{{Type: EventTicketAssigned}, {Type: EventTicketUpdated}})
	assert.Equal(t, []EventType{EventTicketAssigned, EventTicketUpdated}, seen)

	PublishAll(context.Background(), nil, []Event{{Type: EventTicketAssigned}})
}
