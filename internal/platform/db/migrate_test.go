package db_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-retail/internal/platform/db"
	"github.com/odyssey-erp/odyssey-retail/internal/platform/db/dbtest"
)

func TestOpenSQLiteMigratesToCurrent(t *testing.T) {
	conn := dbtest.Open(t)
	version, err := db.SchemaVersion(context.Background(), conn)
	require.NoError(t, err)
	assert.Equal(t, db.CurrentSchemaVersion(), version)

	applied, err := db.Migrate(context.Background(), conn)
	require.NoError(t, err)
	assert.Zero(t, applied)
}

func TestBalanceDueBackfill(t *testing.T) {
	ctx := context.Background()
	conn := openAtV1(t)

	now := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	_, err := conn.ExecContext(ctx, `INSERT INTO customers (id, tenant_id, name, type, created_at, updated_at)
		VALUES ('c-1', 't', 'Asha', 'customer', ?, ?)`, now, now)
	require.NoError(t, err)
	_, err = conn.ExecContext(ctx, `INSERT INTO sales_orders (id, tenant_id, customer_id, status, issued_date,
		subtotal, discount, discount_type, discount_value, tax, total, paid_amount, created_at, updated_at)
		VALUES ('SO-1', 't', 'c-1', 'draft', ?, '100', '0', 'amount', '0', '18', '118', '18', ?, ?),
		       ('SO-2', 't', 'c-1', 'paid', ?, '100', '0', 'amount', '0', '0', '100', '150', ?, ?)`,
		now, now, now, now, now, now)
	require.NoError(t, err)

	applied, err := db.Migrate(ctx, conn)
	require.NoError(t, err)
	assert.Equal(t, len(db.Migrations)-1, applied)

	due := map[string]decimal.Decimal{}
	rows, err := conn.QueryContext(ctx, `SELECT id, balance_due FROM sales_orders`)
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var id string
		var d decimal.Decimal
		require.NoError(t, rows.Scan(&id, &d))
		due[id] = d
	}
	require.NoError(t, rows.Err())
	assert.True(t, due["SO-1"].Equal(decimal.NewFromInt(100)), due["SO-1"].String())
	assert.True(t, due["SO-2"].IsZero(), due["SO-2"].String())

	version, err := db.SchemaVersion(ctx, conn)
	require.NoError(t, err)
	assert.Equal(t, db.CurrentSchemaVersion(), version)
}

func TestOrderSequencesResumeAfterHighestTenantCounter(t *testing.T) {
	ctx := context.Background()
	conn := openAtV1(t)

	_, err := conn.ExecContext(ctx, `INSERT INTO order_counters (tenant_id, prefix, last_number)
		VALUES ('t1', 'SO', 3), ('t2', 'SO', 7), ('t1', 'PO', 2)`)
	require.NoError(t, err)

	_, err = db.Migrate(ctx, conn)
	require.NoError(t, err)

	last := map[string]int64{}
	rows, err := conn.QueryContext(ctx, `SELECT prefix, last_number FROM order_sequences`)
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var prefix string
		var n int64
		require.NoError(t, rows.Scan(&prefix, &n))
		last[prefix] = n
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, map[string]int64{"SO": 7, "PO": 2}, last)

	var tables int
	require.NoError(t, conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'order_counters'`).Scan(&tables))
	assert.Zero(t, tables)
}

// openAtV1 opens a store that stopped at the base schema.
func openAtV1(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "v1.db")
	conn, err := sql.Open("sqlite3", "file:"+path+"?_foreign_keys=on")
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	v1 := db.Migrations[0]
	require.NoError(t, db.WithTx(ctx, conn, func(tx *sql.Tx) error {
		if err := v1.Up(ctx, tx); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "PRAGMA user_version = 1")
		return err
	}))
	return conn
}
