package dto

import "time"

// NotificationResponse is one inbox entry.
type NotificationResponse struct {
	ID        string     `json:"id"`
	AlertID   *string    `json:"alert_id,omitempty"`
	TicketID  *string    `json:"ticket_id,omitempty"`
	Type      string     `json:"type"`
	Channel   string     `json:"channel"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Status    string     `json:"status"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
