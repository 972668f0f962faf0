package worker

import (
	"github.com/cortexdesk/cortexdesk/internal/service"
)

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
