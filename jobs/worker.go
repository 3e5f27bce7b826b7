package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// SyncWorkerConfig describes the background process that drains outboxes.
type SyncWorkerConfig struct {
	Redis  asynq.RedisClientOpt
	Logger *slog.Logger
	Push   *OutboxPushJob
	// PushEvery schedules a push of every pending tenant. Zero leaves pushes to
	// manual triggers.
	PushEvery   time.Duration
	Concurrency int
}

// SyncWorker consumes outbox push tasks and, when scheduled, enqueues them.
type SyncWorker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
	logger    *slog.Logger
}

// NewSyncWorker wires the push job into an asynq server.
func NewSyncWorker(cfg SyncWorkerConfig) (*SyncWorker, error) {
	if cfg.Push == nil {
		return nil, errors.New("jobs: outbox push job required")
	}
	if cfg.PushEvery < 0 {
		return nil, fmt.Errorf("jobs: push interval %s must not be negative", cfg.PushEvery)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		// pushes for one tenant serialise on the lease, so a few slots suffice
		concurrency = 2
	}

	server := asynq.NewServer(cfg.Redis, asynq.Config{
		Concurrency:     concurrency,
		Queues:          map[string]int{QueueDefault: 1},
		ShutdownTimeout: 10 * time.Second,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			logger.Warn("sync task failed",
				slog.String("task", task.Type()),
				slog.Int("retried", retried),
				slog.Any("error", err))
		}),
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskOutboxPush, cfg.Push.Handle)

	w := &SyncWorker{server: server, mux: mux, logger: logger}
	if cfg.PushEvery > 0 {
		task, err := NewOutboxPushTask("")
		if err != nil {
			return nil, err
		}
		w.scheduler = asynq.NewScheduler(cfg.Redis, &asynq.SchedulerOpts{Location: time.UTC})
		opts := []asynq.Option{asynq.Queue(QueueDefault), asynq.MaxRetry(3), asynq.Unique(cfg.PushEvery)}
		if _, err := w.scheduler.Register(pushSchedule(cfg.PushEvery), task, opts...); err != nil {
			return nil, fmt.Errorf("jobs: schedule outbox push: %w", err)
		}
	}
	return w, nil
}

func pushSchedule(every time.Duration) string {
	return "@every " + every.String()
}

// Run processes tasks until ctx is cancelled or the server stops on its own.
func (w *SyncWorker) Run(ctx context.Context) error {
	if w.scheduler != nil {
		if err := w.scheduler.Start(); err != nil {
			return fmt.Errorf("jobs: start scheduler: %w", err)
		}
		defer w.scheduler.Shutdown()
	}
	w.logger.Info("sync worker started", slog.Bool("scheduled", w.scheduler != nil))

	done := make(chan error, 1)
	go func() { done <- w.server.Run(w.mux) }()

	select {
	case <-ctx.Done():
		w.server.Shutdown()
		return ctx.Err()
	case err := <-done:
		return err
	}
}
