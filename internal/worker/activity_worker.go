package worker

import (
	"github.com/spec-kit/campus-fix/internal/service"
)

// StartActivityWorker subscribes the activity recorder to issue events.
func StartActivityWorker(activity *service.ActivityService) {
	if activity == nil {
		return
	}
	activity.RegisterHandlers()
}
