package repository

import "github.com/jackc/pgx/v5/pgxpool"

// Set bundles every repository the services need.
type Set struct {
	Users         UserRepository
	Alerts        AlertRepository
	Tickets       TicketRepository
	History       TicketHistoryRepository
	Comments      TicketCommentRepository
	Notifications NotificationRepository
	SystemConfig  SystemConfigRepository
}

// NewPostgresSet wires the pgx-backed implementations.
func NewPostgresSet(pool *pgxpool.Pool) Set {
	return Set{
		Users:         NewUserRepository(pool),
		Alerts:        NewAlertRepository(pool),
		Tickets:       NewTicketRepository(pool),
		History:       NewTicketHistoryRepository(pool),
		Comments:      NewTicketCommentRepository(pool),
		Notifications: NewNotificationRepository(pool),
		SystemConfig:  NewSystemConfigRepository(pool),
	}
}
