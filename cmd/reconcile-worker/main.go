package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/princekumarofficial/portfolio-engagement/internal/config"
	"github.com/princekumarofficial/portfolio-engagement/internal/storage/postgres"
)

// ReconcileWorker periodically rebuilds the denormalized view-count table
// from the raw view-event log and purges spent OTP rows. The request
// handlers never maintain the aggregate themselves; this worker owns it.
type ReconcileWorker struct {
	storage  *postgres.Postgres
	interval time.Duration
	logger   *slog.Logger
}

func NewReconcileWorker(storage *postgres.Postgres, interval time.Duration) *ReconcileWorker {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	return &ReconcileWorker{
		storage:  storage,
		interval: interval,
		logger:   logger,
	}
}

func (rw *ReconcileWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(rw.interval)
	defer ticker.Stop()

	rw.logger.Info("Reconcile worker started",
		"interval", rw.interval.String())

	// Run once immediately on startup
	rw.runPass(ctx)

	for {
		select {
		case <-ctx.Done():
			rw.logger.Info("Reconcile worker shutting down")
			return
		case <-ticker.C:
			rw.runPass(ctx)
		}
	}
}

func (rw *ReconcileWorker) runPass(ctx context.Context) {
	startTime := time.Now()

	rw.logger.Info("Starting reconcile pass")

	aggregates, err := rw.storage.RebuildViewCounts()
	if err != nil {
		rw.logger.Error("Failed to rebuild view counts",
			"error", err.Error(),
			"duration_ms", time.Since(startTime).Milliseconds())
	} else {
		rw.logger.Info("Rebuilt view counts",
			"aggregates", aggregates)
	}

	purged, err := rw.storage.DeleteExpiredOTPs(time.Now())
	if err != nil {
		rw.logger.Error("Failed to purge OTP codes",
			"error", err.Error())
	} else if purged > 0 {
		rw.logger.Info("Purged spent OTP codes",
			"purged", purged)
	}

	rw.logger.Info("Completed reconcile pass",
		"duration_ms", time.Since(startTime).Milliseconds())
}

func main() {
	// Load config
	cfg := config.MustLoad()

	// Initialize database connection
	storage, err := postgres.NewPostgres(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	slog.Info("Connected to Postgres database")

	// Create worker with 1-minute interval
	worker := NewReconcileWorker(storage, time.Minute)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		slog.Info("Received shutdown signal")
		cancel()
	}()

	// Start the worker
	worker.Start(ctx)

	slog.Info("Reconcile worker stopped")
}
