// Package realtime pushes alert, ticket and notification updates to
// connected dashboards over websockets, fanned out through Redis pub/sub.
package realtime

import (
	"context"
	"time"
)

// Topics clients can be subscribed to.
const (
	TopicAlerts     = "alerts"
	TopicTickets    = "tickets"
	userTopicPrefix = "user:"
)

// Event names carried in envelopes.
const (
	EventAlertNew       = "alert:new"
	EventAlertUpdated   = "alert:updated"
	EventTicketNew      = "ticket:new"
	EventTicketUpdated  = "ticket:updated"
	EventTicketAssigned = "ticket:assigned"
	EventTicketComment  = "ticket:comment"
	EventSubscribed     = "subscribed"
	EventUnsubscribed   = "unsubscribed"
	EventError          = "error"
)

// UserTopic is the private room of one user.
func UserTopic(userID string) string {
	return userTopicPrefix + userID
}

// Envelope is the message format on the Redis channel and the socket.
type Envelope struct {
	Event     string    `json:"event"`
	Topic     string    `json:"topic"`
	UserID    string    `json:"user_id,omitempty"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher sends envelopes towards connected clients.
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
}
