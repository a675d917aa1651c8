package domain

import "time"

// TicketComment captures a note left on a ticket.
type TicketComment struct {
	ID         string
	TicketID   string
	UserID     string
	Comment    string
	IsInternal bool
	CreatedAt  time.Time
}
