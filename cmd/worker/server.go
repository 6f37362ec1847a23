package main

import (
	"context"
	"log"

	"github.com/hibiken/asynq"

	"storefront-backend/internal/shared"
	"storefront-backend/pkg/container"
	"storefront-backend/pkg/logger"
)

type asynqServer struct {
	*asynq.Server
}

// setupAsynqServer configures queue priorities and starts consuming
func setupAsynqServer(c *container.Container, cfg *workerConfig, handlers *HandlerRegistry) *asynqServer {
	mux := asynq.NewServeMux()
	handlers.RegisterHandlers(mux)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     c.Config.Redis.Host,
			Password: c.Config.Redis.Password,
			DB:       c.Config.Redis.DB,
		},
		asynq.Config{
			Queues: map[string]int{
				shared.QueueStock: 10,
				"default":         5,
				shared.QueueLow:   1,
			},
			Concurrency: cfg.Concurrency,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task failed: "+task.Type(), err)
			}),
		},
	)

	go func() {
		logger.Info("worker starting", nil)
		if err := srv.Run(mux); err != nil {
			log.Fatalf("worker failed: %v", err)
		}
	}()

	return &asynqServer{Server: srv}
}

// Shutdown drains in-flight tasks before stopping
func (s *asynqServer) Shutdown() {
	s.Server.Shutdown()
}
