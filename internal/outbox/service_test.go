package outbox

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-retail/internal/platform/db"
	"github.com/odyssey-erp/odyssey-retail/internal/platform/db/dbtest"
	"github.com/odyssey-erp/odyssey-retail/internal/shared"
)

func enqueueCommitted(t *testing.T, conn *sql.DB, svc *Service, entityID string) SyncRecord {
	t.Helper()
	ctx := dbtest.TenantContext()
	var rec SyncRecord
	err := db.WithTx(ctx, conn, func(tx *sql.Tx) error {
		var err error
		rec, err = svc.Enqueue(ctx, tx, EntityCustomer, entityID, ActionCreate, map[string]string{"id": entityID})
		return err
	})
	require.NoError(t, err)
	return rec
}

func TestEnqueueIsPendingInInsertionOrder(t *testing.T) {
	conn := dbtest.Open(t)
	svc := NewService(conn, dbtest.NewClock().Now)
	ctx := dbtest.TenantContext()

	first := enqueueCommitted(t, conn, svc, "c-1")
	second := enqueueCommitted(t, conn, svc, "c-2")
	assert.Greater(t, second.ID, first.ID)

	pending, err := svc.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "c-1", pending[0].EntityID)
	assert.Equal(t, "c-2", pending[1].EntityID)
	assert.True(t, pending[0].Pending())
	assert.JSONEq(t, `{"id":"c-1"}`, string(pending[0].Payload))
}

func TestMarkSyncedIsIdempotent(t *testing.T) {
	conn := dbtest.Open(t)
	svc := NewService(conn, dbtest.NewClock().Now)
	ctx := dbtest.TenantContext()

	rec := enqueueCommitted(t, conn, svc, "c-1")
	other := enqueueCommitted(t, conn, svc, "c-2")

	changed, err := svc.MarkSynced(ctx, []int64{rec.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, changed)

	changed, err = svc.MarkSynced(ctx, []int64{rec.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 0, changed)

	pending, err := svc.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, other.ID, pending[0].ID)

	history, err := svc.History(ctx, EntityCustomer, "c-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.NotNil(t, history[0].SyncedAt)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Pending: 1, Synced: 1}, stats)
}

func TestMarkSyncedIgnoresUnknownIDs(t *testing.T) {
	conn := dbtest.Open(t)
	svc := NewService(conn, nil)

	changed, err := svc.MarkSynced(dbtest.TenantContext(), []int64{999})
	require.NoError(t, err)
	assert.Zero(t, changed)

	changed, err = svc.MarkSynced(dbtest.TenantContext(), nil)
	require.NoError(t, err)
	assert.Zero(t, changed)
}

func TestEnqueueRollsBackWithItsTransaction(t *testing.T) {
	conn := dbtest.Open(t)
	svc := NewService(conn, nil)
	ctx := dbtest.TenantContext()
	boom := errors.New("boom")

	err := db.WithTx(ctx, conn, func(tx *sql.Tx) error {
		if _, err := svc.Enqueue(ctx, tx, EntityProduct, "p-1", ActionUpdate, nil); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, shared.ErrTransactionFailed)
	require.ErrorIs(t, err, boom)

	pending, err := svc.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestTenantIsolation(t *testing.T) {
	conn := dbtest.Open(t)
	svc := NewService(conn, nil)
	enqueueCommitted(t, conn, svc, "c-1")

	otherCtx := shared.ContextWithTenant(context.Background(), "someone-else")
	pending, err := svc.ListPending(otherCtx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = svc.ListPending(context.Background())
	require.ErrorIs(t, err, shared.ErrValidation)

	tenants, err := svc.PendingTenants(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{dbtest.Tenant}, tenants)
}
