package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kobina/receiptbook/internal/config"
	"github.com/kobina/receiptbook/internal/httpapi"
	"github.com/kobina/receiptbook/internal/metrics"
	"github.com/kobina/receiptbook/internal/service"
	"github.com/kobina/receiptbook/internal/storage/sqlite"
	"github.com/kobina/receiptbook/pkg/logging"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.App.LogLevel)

	// Initialize SQLite storage
	store, err := sqlite.New(cfg.Storage.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.Storage.DBPath)

	businessService := service.NewBusinessService(store)
	receiptService := service.NewReceiptService(store)

	// Each device carries a stable id and sync cursors from first start.
	if _, err := receiptService.InitDeviceState(context.Background()); err != nil {
		slog.Error("Failed to initialize device state", "error", err)
		os.Exit(1)
	}

	metrics.RegisterOutboxDepth(func() float64 {
		count, err := store.CountOutbox(context.Background())
		if err != nil {
			return 0
		}
		return float64(count)
	})

	mux := http.NewServeMux()
	mux.Handle("/", httpapi.New(businessService, receiptService).Handler())
	mux.Handle("/metrics", promhttp.Handler())

	handler := loggingMiddleware(corsMiddleware(mux, cfg.CORS.AllowedOrigin))

	addr := ":" + cfg.App.Port
	slog.Info("Server starting", "name", cfg.App.Name, "env", cfg.App.Env, "address", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

// loggingMiddleware logs all incoming requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		slog.Info("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler, allowedOrigin string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
