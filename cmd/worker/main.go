package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"storefront-backend/pkg/container"
	"storefront-backend/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	logger.Init(getEnv("APP_ENV", "development"))

	c, err := container.NewContainer()
	if err != nil {
		log.Fatalf("failed to initialize container: %v", err)
	}
	defer c.Shutdown()

	cfg := loadWorkerConfig(c)

	handlers := initializeHandlers(c, cfg)
	srv := setupAsynqServer(c, cfg, handlers)
	scheduler := setupScheduler(c, cfg)

	go startHealthCheckServer(getEnv("WORKER_HEALTH_ADDR", ":9999"))

	waitForShutdown(srv, scheduler)
}

func waitForShutdown(srv *asynqServer, scheduler *asynqScheduler) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("worker shutting down", nil)
	scheduler.Shutdown()
	srv.Shutdown()
	logger.Info("worker stopped", nil)
}
