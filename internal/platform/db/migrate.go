package db

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/shopspring/decimal"
)

//go:embed schema.sql
var schemaSQL string

// Migration is one additive schema step. Steps run in order inside their own
// transaction and bump PRAGMA user_version on success.
type Migration struct {
	Version int
	Name    string
	Up      func(ctx context.Context, tx *sql.Tx) error
}

// Migrations lists every schema version known to this build.
var Migrations = []Migration{
	{Version: 1, Name: "base schema", Up: applyBaseSchema},
	{Version: 2, Name: "order balance due", Up: addOrderBalanceDue},
	{Version: 3, Name: "store-wide order sequences", Up: globalOrderSequences},
}

// CurrentSchemaVersion is the version a fully migrated store reports.
func CurrentSchemaVersion() int {
	return Migrations[len(Migrations)-1].Version
}

// SchemaVersion reads the applied schema version.
func SchemaVersion(ctx context.Context, conn DBTX) (int, error) {
	var version int
	if err := conn.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("platform/db: read user_version: %w", err)
	}
	return version, nil
}

// Migrate applies every pending migration and returns how many ran.
func Migrate(ctx context.Context, conn *sql.DB) (int, error) {
	current, err := SchemaVersion(ctx, conn)
	if err != nil {
		return 0, err
	}
	applied := 0
	for _, m := range Migrations {
		if m.Version <= current {
			continue
		}
		err := WithTx(ctx, conn, func(tx *sql.Tx) error {
			if err := m.Up(ctx, tx); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", m.Version))
			return err
		})
		if err != nil {
			return applied, fmt.Errorf("platform/db: migrate to v%d (%s): %w", m.Version, m.Name, err)
		}
		applied++
	}
	return applied, nil
}

func applyBaseSchema(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, schemaSQL)
	return err
}

// addOrderBalanceDue adds balance_due to both order tables and backfills
// total - paid_amount for every existing row.
func addOrderBalanceDue(ctx context.Context, tx *sql.Tx) error {
	for _, table := range []string{"sales_orders", "purchase_orders"} {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`ALTER TABLE %s ADD COLUMN balance_due TEXT NOT NULL DEFAULT '0'`, table)); err != nil {
			return err
		}
		if err := backfillBalanceDue(ctx, tx, table); err != nil {
			return err
		}
	}
	return nil
}

type balanceRow struct {
	id    string
	total decimal.Decimal
	paid  decimal.Decimal
}

func backfillBalanceDue(ctx context.Context, tx *sql.Tx, table string) error {
	rows, err := tx.QueryContext(ctx, fmt.Sprintf(`SELECT id, total, paid_amount FROM %s`, table))
	if err != nil {
		return err
	}
	var pending []balanceRow
	for rows.Next() {
		var row balanceRow
		if err := rows.Scan(&row.id, &row.total, &row.paid); err != nil {
			rows.Close()
			return err
		}
		pending = append(pending, row)
	}
	if err := rows.Close(); err != nil {
		return err
	}
	if err := rows.Err(); err != nil {
		return err
	}

	stmt := fmt.Sprintf(`UPDATE %s SET balance_due = ? WHERE id = ?`, table)
	for _, row := range pending {
		due := row.total.Sub(row.paid)
		if due.IsNegative() {
			due = decimal.Zero
		}
		if _, err := tx.ExecContext(ctx, stmt, due.String(), row.id); err != nil {
			return err
		}
	}
	return nil
}

// globalOrderSequences replaces the per-tenant order_counters table with one
// counter per prefix. Order ids are primary keys across every tenant in the
// store, so each prefix resumes after the highest number any tenant reached.
func globalOrderSequences(ctx context.Context, tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS order_sequences (
			prefix      TEXT PRIMARY KEY,
			last_number INTEGER NOT NULL DEFAULT 0
		)`,
		`INSERT INTO order_sequences (prefix, last_number)
			SELECT prefix, MAX(last_number) FROM order_counters GROUP BY prefix`,
		`DROP TABLE order_counters`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
