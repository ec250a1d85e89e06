package stopwatch

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Scheduler runs a task repeatedly until its handle is cancelled.
type Scheduler interface {
	Every(interval time.Duration, task func()) (Handle, error)
}

// Handle cancels a scheduled task. Cancel may be called any number of times.
type Handle interface {
	Cancel()
}

// CronScheduler schedules ticks as gocron duration jobs.
type CronScheduler struct {
	scheduler gocron.Scheduler
}

// NewCronScheduler creates and starts a gocron scheduler driven by clock.
func NewCronScheduler(clock clockwork.Clock) (*CronScheduler, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	scheduler, err := gocron.NewScheduler(gocron.WithClock(clock))
	if err != nil {
		return nil, fmt.Errorf("create gocron scheduler: %w", err)
	}
	scheduler.Start()
	return &CronScheduler{scheduler: scheduler}, nil
}

// Every registers task as a singleton duration job. The first run happens
// one interval after registration.
func (cron *CronScheduler) Every(interval time.Duration, task func()) (Handle, error) {
	job, err := cron.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, fmt.Errorf("schedule tick job: %w", err)
	}
	return &cronHandle{scheduler: cron.scheduler, id: job.ID()}, nil
}

// Shutdown stops the scheduler and every remaining job.
func (cron *CronScheduler) Shutdown() error {
	return cron.scheduler.Shutdown()
}

type cronHandle struct {
	once      sync.Once
	scheduler gocron.Scheduler
	id        uuid.UUID
}

func (handle *cronHandle) Cancel() {
	handle.once.Do(func() {
		_ = handle.scheduler.RemoveJob(handle.id)
	})
}
