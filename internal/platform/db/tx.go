package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/odyssey-erp/odyssey-retail/internal/shared"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so repositories run inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx executes fn inside one write transaction spanning every touched table.
// Errors already classified by the domain are returned unchanged; anything else,
// including begin and commit failures, is reported as ErrTransactionFailed.
func WithTx(ctx context.Context, conn *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: platform/db: begin tx: %v", shared.ErrTransactionFailed, err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		if shared.IsDomainError(err) {
			return err
		}
		return fmt.Errorf("%w: %w", shared.ErrTransactionFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: platform/db: commit tx: %v", shared.ErrTransactionFailed, err)
	}

	return nil
}
