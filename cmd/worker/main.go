package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-retail/internal/app"
	jobmetrics "github.com/odyssey-erp/odyssey-retail/internal/jobs"
	"github.com/odyssey-erp/odyssey-retail/internal/outbox"
	"github.com/odyssey-erp/odyssey-retail/internal/platform/db"
	"github.com/odyssey-erp/odyssey-retail/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	conn, err := db.OpenSQLite(ctx, cfg.SQLitePath)
	if err != nil {
		logger.Error("open local store", slog.Any("error", err))
		os.Exit(1)
	}
	defer conn.Close()

	pushJob, closePush, err := app.NewOutboxPushJob(ctx, cfg, outbox.NewService(conn, nil), logger, app.PushOptions{
		WithLease: true,
		Metrics:   jobmetrics.NewMetrics(nil),
	})
	if err != nil {
		logger.Error("init outbox push", slog.Any("error", err))
		os.Exit(1)
	}
	defer closePush()

	worker, err := jobs.NewSyncWorker(jobs.SyncWorkerConfig{
		Redis:     asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Push:      pushJob,
		PushEvery: cfg.SyncEvery,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
