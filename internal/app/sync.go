package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/odyssey-erp/odyssey-retail/internal/outbox"
	"github.com/odyssey-erp/odyssey-retail/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-retail/internal/platform/db"
	"github.com/odyssey-erp/odyssey-retail/internal/remote"
	"github.com/odyssey-erp/odyssey-retail/jobs"

	jobmetrics "github.com/odyssey-erp/odyssey-retail/internal/jobs"
)

// PushOptions controls how NewOutboxPushJob connects to its collaborators.
type PushOptions struct {
	// WithLease takes a per-tenant redis lease around each push.
	WithLease bool
	Metrics   *jobmetrics.Metrics
}

// NewOutboxPushJob connects to the remote mirror (and redis when a lease is
// wanted) and returns the job plus a func releasing those connections.
func NewOutboxPushJob(ctx context.Context, cfg *Config, queue *outbox.Service, logger *slog.Logger, opts PushOptions) (*jobs.OutboxPushJob, func(), error) {
	if cfg.RemotePGDSN == "" {
		return nil, nil, errors.New("REMOTE_PG_DSN is required to push the outbox")
	}
	pool, err := db.NewPostgres(ctx, cfg.RemotePGDSN)
	if err != nil {
		return nil, nil, err
	}
	mirror := remote.NewPostgresMirror(pool)
	if err := mirror.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	job := &jobs.OutboxPushJob{
		Outbox:    queue,
		Mirror:    mirror,
		Logger:    logger,
		Metrics:   opts.Metrics,
		BatchSize: cfg.SyncBatch,
		LockTTL:   cfg.SyncLockTTL,
	}
	closers := []func(){pool.Close}
	if opts.WithLease {
		client, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr})
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		job.Locker = cache.NewLocker(client)
		closers = append(closers, func() {
			if err := client.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		})
	}
	return job, func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}, nil
}
