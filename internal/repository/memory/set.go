package memory

import "github.com/siteops/alertdesk/internal/repository"

// NewSet returns a fresh in-memory repository.Set.
func NewSet() repository.Set {
	return repository.Set{
		Users:         NewUserRepository(),
		Alerts:        NewAlertRepository(),
		Tickets:       NewTicketRepository(),
		History:       NewTicketHistoryRepository(),
		Comments:      NewTicketCommentRepository(),
		Notifications: NewNotificationRepository(),
		SystemConfig:  NewSystemConfigRepository(),
	}
}
