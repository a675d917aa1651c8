package events

import (
	"time"

	"github.com/siteops/alertdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventAlertCreated       EventType = "alert.created"
	EventAlertUpdated       EventType = "alert.updated"
	EventTicketCreated      EventType = "ticket.created"
	EventTicketUpdated      EventType = "ticket.updated"
	EventTicketAssigned     EventType = "ticket.assigned"
	EventTicketSLAChanged   EventType = "ticket.sla_changed"
	EventTicketCommentAdded EventType = "ticket.comment_added"
)

// Actor identifies who caused an event. A nil UserID means the system did.
type Actor struct {
	UserID *string `json:"user_id,omitempty"`
}

// SystemActor is used for escalations and sweeps.
func SystemActor() Actor {
	return Actor{}
}

// UserActor wraps a user id.
func UserActor(userID string) Actor {
	if userID == "" {
		return SystemActor()
	}
	return Actor{UserID: &userID}
}

// Event represents a side effect requested by the engine after a durable change.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	EntityID  string      `json:"entity_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// AlertPayload carries a snapshot of an alert.
type AlertPayload struct {
	Alert domain.Alert `json:"alert"`
}

// TicketPayload carries a snapshot of a ticket.
type TicketPayload struct {
	Ticket domain.Ticket `json:"ticket"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	Ticket           domain.Ticket `json:"ticket"`
	PreviousAssignee *string       `json:"previous_assignee,omitempty"`
	AssigneeID       string        `json:"assignee_id"`
}

// TicketSLAChangedPayload payload.
type TicketSLAChangedPayload struct {
	Ticket    domain.Ticket    `json:"ticket"`
	OldStatus domain.SLAStatus `json:"old_status"`
	NewStatus domain.SLAStatus `json:"new_status"`
}

// TicketCommentPayload payload.
type TicketCommentPayload struct {
	TicketID string               `json:"ticket_id"`
	Comment  domain.TicketComment `json:"comment"`
}
