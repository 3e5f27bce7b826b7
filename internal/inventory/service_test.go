package inventory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-retail/internal/outbox"
	"github.com/odyssey-erp/odyssey-retail/internal/platform/db"
	"github.com/odyssey-erp/odyssey-retail/internal/platform/db/dbtest"
	"github.com/odyssey-erp/odyssey-retail/internal/products"
	"github.com/odyssey-erp/odyssey-retail/internal/shared"
)

type recordingObserver struct {
	events []StockAdjustedEvent
	err    error
}

func (o *recordingObserver) HandleStockAdjusted(_ context.Context, evt StockAdjustedEvent) error {
	o.events = append(o.events, evt)
	return o.err
}

type fixture struct {
	conn     *sql.DB
	sync     *outbox.Service
	products *products.Service
	ledger   *Service
	observer *recordingObserver
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	clock := dbtest.NewClock()
	sync := outbox.NewService(conn, clock.Now)
	observer := &recordingObserver{}
	return fixture{
		conn:     conn,
		sync:     sync,
		products: products.NewService(conn, sync, clock.Now),
		ledger:   NewService(conn, sync, clock.Now, nil, observer),
		observer: observer,
	}
}

func TestAdjustStockAllowsNegativeBalances(t *testing.T) {
	f := newFixture(t)
	ctx := dbtest.TenantContext()

	p, err := f.products.Create(ctx, products.CreateInput{Title: "Candle"})
	require.NoError(t, err)

	first, err := f.ledger.AdjustProductStock(ctx, p.ID, -1)
	require.NoError(t, err)
	assert.EqualValues(t, -1, first.StockOnHand)
	assert.EqualValues(t, 2, first.Version)

	second, err := f.ledger.AdjustProductStock(ctx, p.ID, -1)
	require.NoError(t, err)
	assert.EqualValues(t, -2, second.StockOnHand)
	assert.EqualValues(t, 3, second.Version)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))

	history, err := f.sync.History(ctx, outbox.EntityProductStock, p.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.NotEqual(t, history[0].ID, history[1].ID)
	for _, rec := range history {
		var delta outbox.StockDelta
		require.NoError(t, json.Unmarshal(rec.Payload, &delta))
		assert.Equal(t, outbox.StockDelta{ProductID: p.ID, Delta: -1}, delta)
		assert.Equal(t, outbox.ActionUpdate, rec.Action)
		assert.Nil(t, rec.SyncedAt)
	}

	card, err := f.ledger.StockCard(ctx, p.ID, StockCardFilter{})
	require.NoError(t, err)
	require.Len(t, card, 2)
	assert.EqualValues(t, -1, card[0].Balance)
	assert.EqualValues(t, -2, card[1].Balance)
	assert.Equal(t, RefManual, card[1].RefModule)

	require.Len(t, f.observer.events, 2)
	assert.EqualValues(t, -2, f.observer.events[1].Balance)
}

func TestAdjustStockMissingProduct(t *testing.T) {
	f := newFixture(t)
	ctx := dbtest.TenantContext()

	_, err := f.ledger.AdjustProductStock(ctx, "missing", 3)
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = f.ledger.StockCard(ctx, "missing", StockCardFilter{})
	require.ErrorIs(t, err, shared.ErrNotFound)

	stats, err := f.sync.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Pending)
	assert.Empty(t, f.observer.events)
}

func TestAdjustStockRejectsZeroDelta(t *testing.T) {
	f := newFixture(t)
	ctx := dbtest.TenantContext()

	p, err := f.products.Create(ctx, products.CreateInput{Title: "Candle"})
	require.NoError(t, err)

	_, err = f.ledger.AdjustProductStock(ctx, p.ID, 0)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestApplyRollsBackWithCallerTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := dbtest.TenantContext()

	p, err := f.products.Create(ctx, products.CreateInput{Title: "Candle"})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = db.WithTx(ctx, f.conn, func(tx *sql.Tx) error {
		updated, err := f.ledger.Apply(ctx, tx, Adjustment{ProductID: p.ID, Delta: 5, RefModule: RefPurchase, RefID: "PO-1"})
		require.NoError(t, err)
		assert.EqualValues(t, 5, updated.StockOnHand)
		return boom
	})
	require.ErrorIs(t, err, boom)

	stored, err := f.products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.StockOnHand)
	assert.EqualValues(t, 1, stored.Version)

	card, err := f.ledger.StockCard(ctx, p.ID, StockCardFilter{})
	require.NoError(t, err)
	assert.Empty(t, card)

	history, err := f.sync.History(ctx, outbox.EntityProductStock, p.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Empty(t, f.observer.events, "observer only sees committed manual adjustments")
}

func TestObserverFailureDoesNotUndoAdjustment(t *testing.T) {
	f := newFixture(t)
	f.observer.err = errors.New("alert sink down")
	ctx := dbtest.TenantContext()

	level := int64(2)
	p, err := f.products.Create(ctx, products.CreateInput{Title: "Candle", ReorderLevel: &level})
	require.NoError(t, err)

	updated, err := f.ledger.AdjustStock(ctx, Adjustment{ProductID: p.ID, Delta: 1, Note: "recount"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, updated.StockOnHand)
	require.Len(t, f.observer.events, 1)
	assert.True(t, f.observer.events[0].BelowReorderLevel())
}

func TestStockCardLimit(t *testing.T) {
	f := newFixture(t)
	ctx := dbtest.TenantContext()

	p, err := f.products.Create(ctx, products.CreateInput{Title: "Candle"})
	require.NoError(t, err)
	for _, delta := range []int64{10, -3, 4} {
		_, err := f.ledger.AdjustProductStock(ctx, p.ID, delta)
		require.NoError(t, err)
	}

	card, err := f.ledger.StockCard(ctx, p.ID, StockCardFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, card, 2)
	assert.EqualValues(t, 10, card[0].Balance)
	assert.EqualValues(t, 7, card[1].Balance)
}
