package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Bus publishes envelopes on a Redis channel and relays what it receives to
// the local hub. Without Redis it delivers to the hub directly.
type Bus struct {
	client  *redis.Client
	channel string
	hub     *Hub
	logger  *zap.Logger
	clock   func() time.Time
}

// NewBus creates a bus. client may be nil.
func NewBus(client *redis.Client, channel string, hub *Hub, logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	if channel == "" {
		channel = "alertdesk:realtime"
	}
	return &Bus{
		client:  client,
		channel: channel,
		hub:     hub,
		logger:  logger,
		clock:   func() time.Time { return time.Now().UTC() },
	}
}

// Publish implements Publisher.
func (b *Bus) Publish(ctx context.Context, env Envelope) error {
	if env.Timestamp.IsZero() {
		env.Timestamp = b.clock()
	}
	if b.client == nil {
		if b.hub != nil {
			b.hub.Deliver(env)
		}
		return nil
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode realtime envelope: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish realtime envelope: %w", err)
	}
	return nil
}

// PushToUser sends an event to a single user's room. Failures are logged.
func (b *Bus) PushToUser(ctx context.Context, userID, event string, data any) {
	err := b.Publish(ctx, Envelope{
		Event:  event,
		Topic:  UserTopic(userID),
		UserID: userID,
		Data:   data,
	})
	if err != nil {
		b.logger.Warn("realtime push failed", zap.String("user_id", userID), zap.String("event", event), zap.Error(err))
	}
}

// Run relays messages from the Redis channel to the hub until ctx is done.
func (b *Bus) Run(ctx context.Context) error {
	if b.client == nil || b.hub == nil {
		<-ctx.Done()
		return nil
	}
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	b.logger.Info("realtime relay subscribed", zap.String("channel", b.channel))

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.logger.Warn("dropping malformed realtime envelope", zap.Error(err))
				continue
			}
			b.hub.Deliver(env)
		}
	}
}
