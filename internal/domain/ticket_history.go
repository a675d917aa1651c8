package domain

import "time"

// HistoryAction captures what happened in a history entry.
type HistoryAction string

const (
	ActionCreated           HistoryAction = "CREATED"
	ActionStatusChanged     HistoryAction = "STATUS_CHANGED"
	ActionAssigned          HistoryAction = "ASSIGNED"
	ActionPriorityChanged   HistoryAction = "PRIORITY_CHANGED"
	ActionCategoryChanged   HistoryAction = "CATEGORY_CHANGED"
	ActionTagsChanged       HistoryAction = "TAGS_CHANGED"
	ActionResolutionChanged HistoryAction = "RESOLUTION_CHANGED"
	ActionCommentAdded      HistoryAction = "COMMENT_ADDED"
	ActionSLAChanged        HistoryAction = "SLA_CHANGED"
)

// TicketHistory is an immutable audit trail entry. UserID is nil for system actions.
type TicketHistory struct {
	ID        string
	TicketID  string
	UserID    *string
	Action    HistoryAction
	FieldName *string
	OldValue  *string
	NewValue  *string
	CreatedAt time.Time
}
