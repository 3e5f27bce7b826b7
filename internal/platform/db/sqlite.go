package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3"
)

// OpenSQLite opens (creating if needed) the local store at path and applies pending migrations.
//
// The store runs as a single writer: one open connection, WAL journal, immediate
// transaction locks so a read-modify-write inside WithTx never interleaves with another.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	params := url.Values{}
	params.Set("_foreign_keys", "on")
	params.Set("_busy_timeout", "5000")
	params.Set("_journal_mode", "WAL")
	params.Set("_synchronous", "NORMAL")
	params.Set("_txlock", "immediate")
	dsn := fmt.Sprintf("file:%s?%s", path, params.Encode())

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("platform/db: open sqlite: %w", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("platform/db: ping sqlite: %w", err)
	}

	if _, err := Migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}

	return conn, nil
}
