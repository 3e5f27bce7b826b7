// Package remote pushes outbox records to the remote mirror database.
package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-retail/internal/outbox"
)

// Mirror accepts pushed sync records and reports which ids it durably stored.
// Records not acknowledged stay pending locally and are pushed again later.
type Mirror interface {
	Push(ctx context.Context, records []outbox.SyncRecord) ([]int64, error)
}

// PostgresMirror stores pushed records in a sync_inbox table. Inserts are
// keyed on (tenant_id, local_id) so a record pushed twice is stored once.
type PostgresMirror struct {
	pool *pgxpool.Pool
}

// NewPostgresMirror constructs PostgresMirror.
func NewPostgresMirror(pool *pgxpool.Pool) *PostgresMirror {
	return &PostgresMirror{pool: pool}
}

const inboxDDL = `
CREATE TABLE IF NOT EXISTS sync_inbox (
    tenant_id   TEXT        NOT NULL,
    local_id    BIGINT      NOT NULL,
    entity      TEXT        NOT NULL,
    entity_id   TEXT        NOT NULL,
    action      TEXT        NOT NULL,
    payload     JSONB       NOT NULL,
    recorded_at TIMESTAMPTZ NOT NULL,
    received_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (tenant_id, local_id)
);
CREATE INDEX IF NOT EXISTS idx_sync_inbox_entity ON sync_inbox (tenant_id, entity, entity_id);`

// EnsureSchema creates the inbox table when missing.
func (m *PostgresMirror) EnsureSchema(ctx context.Context) error {
	if _, err := m.pool.Exec(ctx, inboxDDL); err != nil {
		return fmt.Errorf("remote: ensure schema: %w", err)
	}
	return nil
}

const insertInbox = `
INSERT INTO sync_inbox (tenant_id, local_id, entity, entity_id, action, payload, recorded_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (tenant_id, local_id) DO NOTHING`

// Push sends records in one batch. It returns the ids acknowledged before the
// first failure, so a partial push still lets the caller mark progress.
func (m *PostgresMirror) Push(ctx context.Context, records []outbox.SyncRecord) ([]int64, error) {
	if len(records) == 0 {
		return nil, nil
	}
	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(insertInbox, rec.TenantID, rec.ID, string(rec.Entity), rec.EntityID, string(rec.Action), string(rec.Payload), rec.Timestamp)
	}

	results := m.pool.SendBatch(ctx, batch)
	acked := make([]int64, 0, len(records))
	var pushErr error
	for _, rec := range records {
		if _, err := results.Exec(); err != nil && !AlreadyStored(err) {
			pushErr = fmt.Errorf("remote: push record %d: %w", rec.ID, err)
			break
		}
		acked = append(acked, rec.ID)
	}
	if err := results.Close(); err != nil && pushErr == nil {
		return acked, fmt.Errorf("remote: close batch: %w", err)
	}
	return acked, pushErr
}

// AlreadyStored reports whether err is a unique violation, meaning the remote
// already holds the record.
func AlreadyStored(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
