package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bsm/redislock"
	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/odyssey-retail/internal/jobs"
	"github.com/odyssey-erp/odyssey-retail/internal/outbox"
	"github.com/odyssey-erp/odyssey-retail/internal/remote"
	"github.com/odyssey-erp/odyssey-retail/internal/shared"
)

const (
	defaultPushBatch = 100
	defaultLockTTL   = 30 * time.Second
)

// PushResult summarises one tenant's push.
type PushResult struct {
	TenantID string
	Pushed   int
	Pending  int
	Skipped  bool
}

// OutboxPushJob forwards pending records in insertion order and acknowledges
// what the mirror accepted. A redis lease keeps one pusher per tenant.
type OutboxPushJob struct {
	Outbox    *outbox.Service
	Mirror    remote.Mirror
	Locker    *redislock.Client
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	BatchSize int
	LockTTL   time.Duration
}

// Handle processes TaskOutboxPush tasks.
func (j *OutboxPushJob) Handle(ctx context.Context, task *asynq.Task) error {
	var payload OutboxPushPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
	}
	_, err := j.Run(ctx, payload.TenantID)
	return err
}

// Run pushes tenantID, or every tenant with pending records when empty.
func (j *OutboxPushJob) Run(ctx context.Context, tenantID string) (results []PushResult, err error) {
	tracker := j.Metrics.Track(TaskOutboxPush)
	defer func() {
		err = tracker.End(err)
	}()

	if j.Outbox == nil || j.Mirror == nil {
		return nil, errors.New("jobs: outbox push not configured")
	}

	tenants := []string{tenantID}
	if tenantID == "" {
		tenants, err = j.Outbox.PendingTenants(ctx)
		if err != nil {
			return nil, err
		}
	}

	for _, tenant := range tenants {
		res, err := j.PushTenant(ctx, tenant)
		if err != nil {
			return results, fmt.Errorf("push tenant %s: %w", tenant, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// PushTenant drains one tenant's outbox. It stops early when the mirror
// acknowledges only part of a batch, leaving the rest pending.
func (j *OutboxPushJob) PushTenant(ctx context.Context, tenantID string) (PushResult, error) {
	res := PushResult{TenantID: tenantID}
	ctx = shared.ContextWithTenant(ctx, tenantID)
	logger := j.logger().With(slog.String("tenant", tenantID))

	ttl := j.LockTTL
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	var lock *redislock.Lock
	if j.Locker != nil {
		var err error
		lock, err = j.Locker.Obtain(ctx, shared.OutboxPushLockKey(tenantID), ttl, nil)
		if errors.Is(err, redislock.ErrNotObtained) {
			logger.Info("outbox push already running")
			res.Skipped = true
			return res, nil
		}
		if err != nil {
			return res, fmt.Errorf("obtain lease: %w", err)
		}
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				logger.Warn("release outbox lease", slog.Any("error", err))
			}
		}()
	}

	batch := j.BatchSize
	if batch <= 0 {
		batch = defaultPushBatch
	}

	for {
		records, err := j.Outbox.ListPendingBatch(ctx, batch)
		if err != nil {
			return res, err
		}
		if len(records) == 0 {
			break
		}
		acked, pushErr := j.Mirror.Push(ctx, records)
		if len(acked) > 0 {
			if _, err := j.Outbox.MarkSynced(ctx, acked); err != nil {
				return res, err
			}
			res.Pushed += len(acked)
			j.Metrics.AddPushed(tenantID, len(acked))
		}
		if pushErr != nil {
			logger.Warn("outbox push interrupted", slog.Int("acked", len(acked)), slog.Any("error", pushErr))
			return res, pushErr
		}
		if len(acked) < len(records) || len(records) < batch {
			break
		}
		if lock != nil {
			if err := lock.Refresh(ctx, ttl, nil); err != nil {
				return res, fmt.Errorf("refresh lease: %w", err)
			}
		}
	}

	stats, err := j.Outbox.Stats(ctx)
	if err != nil {
		return res, err
	}
	res.Pending = stats.Pending
	j.Metrics.SetPending(tenantID, int64(stats.Pending))
	logger.Info("outbox pushed", slog.Int("pushed", res.Pushed), slog.Int("pending", res.Pending))
	return res, nil
}

func (j *OutboxPushJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
