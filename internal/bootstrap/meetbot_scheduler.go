package bootstrap

import (
	"context"

	"meetbot_server/pkg/logger"
)

// StartScheduler launches the birthday reminder loop when it is configured.
// Returns a stop function; a no-op when the scheduler is disabled.
func (d *Dependencies) StartScheduler(ctx context.Context) func() {
	if !d.Config.SchedulerEnabled || d.ReminderService == nil {
		logger.Warn("Reminder scheduler disabled")
		return func() {}
	}

	schedCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.ReminderService.Run(schedCtx)
	}()
	logger.Info("Reminder scheduler started (hour=%d tz=%s)",
		d.Config.SchedulerHour, d.Config.SchedulerTimezone)

	return func() {
		cancel()
		<-done
	}
}
