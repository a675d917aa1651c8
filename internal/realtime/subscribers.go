package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/siteops/alertdesk/internal/domain"
	"github.com/siteops/alertdesk/internal/events"
)

type alertMessage struct {
	ID               string    `json:"id"`
	SiteID           *string   `json:"site_id,omitempty"`
	Category         string    `json:"category"`
	Severity         string    `json:"severity"`
	Status           string    `json:"status"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	DeviationPercent *float64  `json:"deviation_percent,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

type ticketMessage struct {
	ID           string    `json:"id"`
	TicketNumber string    `json:"ticket_number"`
	AlertID      *string   `json:"alert_id,omitempty"`
	Title        string    `json:"title"`
	Priority     string    `json:"priority"`
	Status       string    `json:"status"`
	AssignedToID *string   `json:"assigned_to_id,omitempty"`
	SLADeadline  time.Time `json:"sla_deadline"`
	SLAStatus    string    `json:"sla_status"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func alertView(a domain.Alert) alertMessage {
	return alertMessage{
		ID:               a.ID,
		SiteID:           a.SiteID,
		Category:         string(a.Category),
		Severity:         string(a.Severity),
		Status:           string(a.Status),
		Title:            a.Title,
		Description:      a.Description,
		DeviationPercent: a.DeviationPercent,
		CreatedAt:        a.CreatedAt,
	}
}

func ticketView(t domain.Ticket) ticketMessage {
	return ticketMessage{
		ID:           t.ID,
		TicketNumber: t.TicketNumber,
		AlertID:      t.AlertID,
		Title:        t.Title,
		Priority:     string(t.Priority),
		Status:       string(t.Status),
		AssignedToID: t.AssignedToID,
		SLADeadline:  t.SLADeadline,
		SLAStatus:    string(t.SLAStatus),
		UpdatedAt:    t.UpdatedAt,
	}
}

// RegisterSubscribers forwards domain events to socket topics.
func RegisterSubscribers(d events.Dispatcher, pub Publisher) {
	d.Subscribe(events.EventAlertCreated, alertForwarder(pub, EventAlertNew))
	d.Subscribe(events.EventAlertUpdated, alertForwarder(pub, EventAlertUpdated))
	d.Subscribe(events.EventTicketCreated, ticketForwarder(pub, EventTicketNew))
	d.Subscribe(events.EventTicketUpdated, ticketForwarder(pub, EventTicketUpdated))
	d.Subscribe(events.EventTicketSLAChanged, func(ctx context.Context, e events.Event) error {
		payload, ok := e.Payload.(events.TicketSLAChangedPayload)
		if !ok {
			return unexpected(e)
		}
		return pub.Publish(ctx, Envelope{Event: EventTicketUpdated, Topic: TopicTickets, Data: ticketView(payload.Ticket), Timestamp: e.Timestamp})
	})
	d.Subscribe(events.EventTicketAssigned, func(ctx context.Context, e events.Event) error {
		payload, ok := e.Payload.(events.TicketAssignedPayload)
		if !ok {
			return unexpected(e)
		}
		view := ticketView(payload.Ticket)
		if err := pub.Publish(ctx, Envelope{Event: EventTicketAssigned, Topic: TopicTickets, Data: view, Timestamp: e.Timestamp}); err != nil {
			return err
		}
		return pub.Publish(ctx, Envelope{
			Event:     EventTicketAssigned,
			Topic:     UserTopic(payload.AssigneeID),
			UserID:    payload.AssigneeID,
			Data:      view,
			Timestamp: e.Timestamp,
		})
	})
	d.Subscribe(events.EventTicketCommentAdded, func(ctx context.Context, e events.Event) error {
		payload, ok := e.Payload.(events.TicketCommentPayload)
		if !ok {
			return unexpected(e)
		}
		if payload.Comment.IsInternal {
			return nil
		}
		return pub.Publish(ctx, Envelope{
			Event: EventTicketComment,
			Topic: TopicTickets,
			Data: map[string]any{
				"ticket_id":  payload.TicketID,
				"comment_id": payload.Comment.ID,
				"user_id":    payload.Comment.UserID,
				"comment":    payload.Comment.Comment,
			},
			Timestamp: e.Timestamp,
		})
	})
}

func alertForwarder(pub Publisher, name string) events.EventHandler {
	return func(ctx context.Context, e events.Event) error {
		payload, ok := e.Payload.(events.AlertPayload)
		if !ok {
			return unexpected(e)
		}
		return pub.Publish(ctx, Envelope{Event: name, Topic: TopicAlerts, Data: alertView(payload.Alert), Timestamp: e.Timestamp})
	}
}

func ticketForwarder(pub Publisher, name string) events.EventHandler {
	return func(ctx context.Context, e events.Event) error {
		payload, ok := e.Payload.(events.TicketPayload)
		if !ok {
			return unexpected(e)
		}
		return pub.Publish(ctx, Envelope{Event: name, Topic: TopicTickets, Data: ticketView(payload.Ticket), Timestamp: e.Timestamp})
	}
}

func unexpected(e events.Event) error {
	return fmt.Errorf("unexpected payload %T for %s", e.Payload, e.Type)
}
