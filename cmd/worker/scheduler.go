package main

import (
	"log"

	"storefront-backend/internal/infrastructure/queue"
	"storefront-backend/pkg/container"
	"storefront-backend/pkg/logger"
)

type asynqScheduler struct {
	*queue.Scheduler
}

// setupScheduler registers the recurring order maintenance jobs and
// starts publishing them
func setupScheduler(c *container.Container, cfg *workerConfig) *asynqScheduler {
	scheduler := queue.NewScheduler(
		c.Config.Redis.Host,
		c.Config.Redis.Password,
		c.Config.Redis.DB,
	)

	if err := scheduler.RegisterOrderJobs(cfg.StaleDraftCron); err != nil {
		log.Fatalf("failed to register scheduled jobs: %v", err)
	}

	go func() {
		logger.Info("scheduler starting", nil)
		if err := scheduler.Run(); err != nil {
			log.Fatalf("scheduler failed: %v", err)
		}
	}()

	return &asynqScheduler{Scheduler: scheduler}
}
