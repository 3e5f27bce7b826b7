package jobs

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/odyssey-erp/odyssey-retail/internal/jobs"
	"github.com/odyssey-erp/odyssey-retail/internal/outbox"
	"github.com/odyssey-erp/odyssey-retail/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-retail/internal/platform/db/dbtest"
	"github.com/odyssey-erp/odyssey-retail/internal/shared"
)

type fakeMirror struct {
	received []outbox.SyncRecord
	limit    int
	err      error
}

func (m *fakeMirror) Push(_ context.Context, records []outbox.SyncRecord) ([]int64, error) {
	var acked []int64
	for _, rec := range records {
		if m.limit > 0 && len(m.received) >= m.limit {
			return acked, m.err
		}
		m.received = append(m.received, rec)
		acked = append(acked, rec.ID)
	}
	return acked, nil
}

type pushFixture struct {
	conn *sql.DB
	svc  *outbox.Service
}

func (f pushFixture) seed(t *testing.T, tenant string, n int) {
	t.Helper()
	ctx := shared.ContextWithTenant(context.Background(), tenant)
	for i := 0; i < n; i++ {
		_, err := f.svc.Enqueue(ctx, f.conn, outbox.EntityProduct, "p-1", outbox.ActionUpdate, map[string]int{"n": i})
		require.NoError(t, err)
	}
}

func newPushJob(t *testing.T, mirror *fakeMirror) (*OutboxPushJob, pushFixture) {
	t.Helper()
	conn := dbtest.Open(t)
	svc := outbox.NewService(conn, dbtest.NewClock().Now)
	mr := miniredis.RunT(t)
	client, err := cache.New(context.Background(), cache.Options{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return &OutboxPushJob{
		Outbox:    svc,
		Mirror:    mirror,
		Locker:    cache.NewLocker(client),
		Metrics:   jobmetrics.NewMetrics(prometheus.NewRegistry()),
		BatchSize: 2,
		LockTTL:   time.Minute,
	}, pushFixture{conn: conn, svc: svc}
}

func TestPushTenantDrainsInOrder(t *testing.T) {
	mirror := &fakeMirror{}
	job, fx := newPushJob(t, mirror)
	fx.seed(t, dbtest.Tenant, 5)

	res, err := job.PushTenant(context.Background(), dbtest.Tenant)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Pushed)
	assert.Zero(t, res.Pending)
	require.Len(t, mirror.received, 5)
	for i := 1; i < len(mirror.received); i++ {
		assert.Less(t, mirror.received[i-1].ID, mirror.received[i].ID)
	}

	pending, err := fx.svc.ListPending(dbtest.TenantContext())
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestPushTenantKeepsUnacknowledged(t *testing.T) {
	mirror := &fakeMirror{limit: 3, err: errors.New("remote down")}
	job, fx := newPushJob(t, mirror)
	fx.seed(t, dbtest.Tenant, 5)

	res, err := job.PushTenant(context.Background(), dbtest.Tenant)
	require.Error(t, err)
	assert.Equal(t, 3, res.Pushed)

	pending, err := fx.svc.ListPending(dbtest.TenantContext())
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestPushTenantSkipsWhenLeaseHeld(t *testing.T) {
	mirror := &fakeMirror{}
	job, fx := newPushJob(t, mirror)
	fx.seed(t, dbtest.Tenant, 1)

	held, err := job.Locker.Obtain(context.Background(), shared.OutboxPushLockKey(dbtest.Tenant), time.Minute, nil)
	require.NoError(t, err)
	defer held.Release(context.Background())

	res, err := job.PushTenant(context.Background(), dbtest.Tenant)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Empty(t, mirror.received)
}

func TestRunCoversEveryPendingTenant(t *testing.T) {
	mirror := &fakeMirror{}
	job, fx := newPushJob(t, mirror)
	fx.seed(t, "tenant-a", 1)
	fx.seed(t, "tenant-b", 2)

	results, err := job.Run(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Len(t, mirror.received, 3)
}

func TestHandleRejectsBadPayload(t *testing.T) {
	job, _ := newPushJob(t, &fakeMirror{})
	err := job.Handle(context.Background(), asynq.NewTask(TaskOutboxPush, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
