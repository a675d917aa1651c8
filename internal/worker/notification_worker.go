package worker

import (
	"github.com/siteops/alertdesk/internal/events"
	"github.com/siteops/alertdesk/internal/realtime"
	"github.com/siteops/alertdesk/internal/service"
)

// StartNotificationWorker registers the notification handlers and, when a
// publisher is given, the realtime fan-out on the dispatcher.
func StartNotificationWorker(dispatcher events.Dispatcher, notificationService *service.NotificationService, publisher realtime.Publisher) {
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	if dispatcher != nil && publisher != nil {
		realtime.RegisterSubscribers(dispatcher, publisher)
	}
}
