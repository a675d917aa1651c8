package domain

import "time"

// NotificationType classifies in-app notifications.
type NotificationType string

const (
	NotificationAlert          NotificationType = "ALERT"
	NotificationTicketCreated  NotificationType = "TICKET_CREATED"
	NotificationTicketAssigned NotificationType = "TICKET_ASSIGNED"
	NotificationSLAWarning     NotificationType = "SLA_WARNING"
)

// NotificationChannel is the delivery route.
type NotificationChannel string

const (
	ChannelInApp NotificationChannel = "IN_APP"
	ChannelEmail NotificationChannel = "EMAIL"
)

// NotificationStatus tracks delivery.
type NotificationStatus string

const (
	NotificationPending NotificationStatus = "PENDING"
	NotificationSent    NotificationStatus = "SENT"
	NotificationFailed  NotificationStatus = "FAILED"
	NotificationRead    NotificationStatus = "READ"
)

// Notification is a message addressed to one user.
type Notification struct {
	ID        string
	UserID    string
	AlertID   *string
	TicketID  *string
	Type      NotificationType
	Channel   NotificationChannel
	Title     string
	Message   string
	Status    NotificationStatus
	SentAt    *time.Time
	ReadAt    *time.Time
	CreatedAt time.Time
}
