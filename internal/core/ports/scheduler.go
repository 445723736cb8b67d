package ports

import (
	"time"
)

type SchedulerService interface {
	Start()
	Stop()
	// ScheduleEvery runs task every interval. A tick is skipped while the
	// previous run of task is still in progress.
	ScheduleEvery(interval time.Duration, task func()) error
	WhenNextRun() time.Time
}
