package queue

import (
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"storefront-backend/internal/shared"
)

// Scheduler registers the periodic maintenance tasks the worker runs
// on a cron cadence
type Scheduler struct {
	scheduler *asynq.Scheduler
}

// NewScheduler creates a scheduler backed by the same Redis the worker
// consumes from
func NewScheduler(redisAddr, password string, db int) *Scheduler {
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{
			Addr:     redisAddr,
			Password: password,
			DB:       db,
		},
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)
	return &Scheduler{scheduler: scheduler}
}

// RegisterOrderJobs wires the recurring order maintenance tasks.
// staleDraftCron is a standard cron expression, e.g. "0 * * * *" for
// hourly.
func (s *Scheduler) RegisterOrderJobs(staleDraftCron string) error {
	task := asynq.NewTask(shared.TypeStalePosDraftReport, nil)
	if _, err := s.scheduler.Register(staleDraftCron, task, asynq.Queue(shared.QueueLow)); err != nil {
		return fmt.Errorf("failed to register stale draft report job: %w", err)
	}
	return nil
}

// Run starts the scheduler and blocks until shutdown
func (s *Scheduler) Run() error {
	return s.scheduler.Run()
}

// Shutdown stops publishing scheduled tasks
func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
