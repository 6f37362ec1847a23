package main

import (
	"os"
	"strconv"
	"time"

	"storefront-backend/pkg/container"
	"storefront-backend/pkg/logger"
)

// workerConfig holds the worker-only knobs on top of the shared
// application config
type workerConfig struct {
	Concurrency      int
	StaleDraftCron   string
	StaleDraftMaxAge time.Duration
}

func loadWorkerConfig(c *container.Container) *workerConfig {
	cfg := &workerConfig{
		Concurrency:      getEnvInt("WORKER_CONCURRENCY", 10),
		StaleDraftCron:   getEnv("WORKER_STALE_DRAFT_CRON", "0 * * * *"),
		StaleDraftMaxAge: time.Duration(getEnvInt("WORKER_STALE_DRAFT_MAX_AGE_HOURS", 24)) * time.Hour,
	}

	logger.Info("worker config loaded", map[string]interface{}{
		"redis":            c.Config.Redis.Host,
		"concurrency":      cfg.Concurrency,
		"stale_draft_cron": cfg.StaleDraftCron,
	})

	return cfg
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
