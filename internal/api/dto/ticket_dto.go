package dto

import "time"

// TicketCreateRequest payload for POST /tickets.
type TicketCreateRequest struct {
	AlertID      *string  `json:"alert_id" validate:"omitempty,uuid"`
	Title        string   `json:"title" validate:"required,max=255"`
	Description  string   `json:"description"`
	Priority     string   `json:"priority" validate:"required,oneof=CRITICAL HIGH MEDIUM LOW"`
	Category     string   `json:"category" validate:"max=64"`
	Tags         []string `json:"tags" validate:"omitempty,dive,required,max=64"`
	AssignedToID *string  `json:"assigned_to_id" validate:"omitempty,uuid"`
}

// TicketUpdateRequest payload for PATCH /tickets/:id.
type TicketUpdateRequest struct {
	Status       *string   `json:"status" validate:"omitempty,oneof=OPEN ASSIGNED IN_PROGRESS PENDING RESOLVED CLOSED CANCELLED"`
	Priority     *string   `json:"priority" validate:"omitempty,oneof=CRITICAL HIGH MEDIUM LOW"`
	AssignedToID *string   `json:"assigned_to_id" validate:"omitempty,uuid"`
	Resolution   *string   `json:"resolution"`
	Category     *string   `json:"category" validate:"omitempty,max=64"`
	Tags         *[]string `json:"tags" validate:"omitempty,dive,required,max=64"`
}

// TicketAssignRequest payload for POST /tickets/:id/assign.
type TicketAssignRequest struct {
	AssigneeID string `json:"assignee_id" validate:"required,uuid"`
}

// CommentCreateRequest payload for POST /tickets/:id/comments.
type CommentCreateRequest struct {
	Comment    string `json:"comment" validate:"required,max=5000"`
	IsInternal bool   `json:"is_internal"`
}

// TicketSummary is the list view of a ticket.
type TicketSummary struct {
	ID           string     `json:"id"`
	TicketNumber string     `json:"ticket_number"`
	AlertID      *string    `json:"alert_id,omitempty"`
	Title        string     `json:"title"`
	Priority     string     `json:"priority"`
	Status       string     `json:"status"`
	AssignedToID *string    `json:"assigned_to_id,omitempty"`
	SLADeadline  time.Time  `json:"sla_deadline"`
	SLAStatus    string     `json:"sla_status"`
	Category     string     `json:"category"`
	Tags         []string   `json:"tags"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TicketResponse is the full view of a ticket.
type TicketResponse struct {
	TicketSummary
	Description string     `json:"description"`
	AssignedAt  *time.Time `json:"assigned_at,omitempty"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
	Resolution  *string    `json:"resolution,omitempty"`
}

// TicketDetailResponse bundles a ticket with its conversation and audit trail.
type TicketDetailResponse struct {
	TicketResponse
	Comments []CommentResponse `json:"comments"`
	History  []HistoryResponse `json:"history"`
}

// CommentResponse is the API view of a ticket comment.
type CommentResponse struct {
	ID         string    `json:"id"`
	TicketID   string    `json:"ticket_id"`
	UserID     string    `json:"user_id"`
	Comment    string    `json:"comment"`
	IsInternal bool      `json:"is_internal"`
	CreatedAt  time.Time `json:"created_at"`
}

// HistoryResponse is the API view of one audit entry.
type HistoryResponse struct {
	ID        string    `json:"id"`
	UserID    *string   `json:"user_id"`
	Action    string    `json:"action"`
	FieldName *string   `json:"field_name,omitempty"`
	OldValue  *string   `json:"old_value,omitempty"`
	NewValue  *string   `json:"new_value,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
