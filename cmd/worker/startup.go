package main

import (
	"net/http"

	"storefront-backend/pkg/logger"
)

// startHealthCheckServer exposes liveness and readiness probes for the
// worker process
func startHealthCheckServer(addr string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"UP","service":"storefront-worker"}`))
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"READY"}`))
	})

	logger.Info("worker health server starting", map[string]interface{}{"addr": addr})
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("worker health server failed", err)
	}
}
