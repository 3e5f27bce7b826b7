package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/odyssey-erp/odyssey-retail/internal/platform/db"
)

// Repository persists sync records in the local store.
type Repository struct {
	db db.DBTX
}

// NewRepository constructs Repository.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{db: conn}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *sql.Tx) *Repository {
	return &Repository{db: tx}
}

// Insert appends rec and returns its sequence id.
func (r *Repository) Insert(ctx context.Context, rec SyncRecord) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO sync_records (tenant_id, entity, entity_id, action, payload, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.TenantID, string(rec.Entity), rec.EntityID, string(rec.Action), string(rec.Payload), rec.Timestamp,
	)
	if err != nil {
		return 0, fmt.Errorf("outbox: insert record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("outbox: last insert id: %w", err)
	}
	return id, nil
}

// ListPending returns unacknowledged records in insertion order. limit <= 0 means no limit.
func (r *Repository) ListPending(ctx context.Context, tenantID string, limit int) ([]SyncRecord, error) {
	query := `
		SELECT id, tenant_id, entity, entity_id, action, payload, timestamp, synced_at
		FROM sync_records
		WHERE tenant_id = ? AND synced_at IS NULL
		ORDER BY id`
	args := []any{tenantID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return r.list(ctx, query, args...)
}

// ListByEntity returns every record for one entity, oldest first.
func (r *Repository) ListByEntity(ctx context.Context, tenantID string, entity EntityType, entityID string) ([]SyncRecord, error) {
	return r.list(ctx, `
		SELECT id, tenant_id, entity, entity_id, action, payload, timestamp, synced_at
		FROM sync_records
		WHERE tenant_id = ? AND entity = ? AND entity_id = ?
		ORDER BY id`, tenantID, string(entity), entityID)
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]SyncRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("outbox: list records: %w", err)
	}
	defer rows.Close()

	var records []SyncRecord
	for rows.Next() {
		var (
			rec      SyncRecord
			entity   string
			action   string
			payload  string
			syncedAt sql.NullTime
		)
		if err := rows.Scan(&rec.ID, &rec.TenantID, &entity, &rec.EntityID, &action, &payload, &rec.Timestamp, &syncedAt); err != nil {
			return nil, fmt.Errorf("outbox: scan record: %w", err)
		}
		rec.Entity = EntityType(entity)
		rec.Action = Action(action)
		rec.Payload = []byte(payload)
		if syncedAt.Valid {
			at := syncedAt.Time
			rec.SyncedAt = &at
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("outbox: iterate records: %w", err)
	}
	return records, nil
}

// MarkSynced stamps synced_at on the given ids that are still pending and
// returns how many rows changed. Already-synced ids are left untouched.
func (r *Repository) MarkSynced(ctx context.Context, tenantID string, ids []int64, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, 0, len(ids)+2)
	args = append(args, at, tenantID)
	for i, id := range ids {
		placeholders[i] = "?"
		args = append(args, id)
	}
	query := fmt.Sprintf(`
		UPDATE sync_records SET synced_at = ?
		WHERE tenant_id = ? AND synced_at IS NULL AND id IN (%s)`, strings.Join(placeholders, ","))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("outbox: mark synced: %w", err)
	}
	return res.RowsAffected()
}

// Stats counts pending and synced records for tenantID.
func (r *Repository) Stats(ctx context.Context, tenantID string) (Stats, error) {
	var stats Stats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN synced_at IS NULL THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN synced_at IS NULL THEN 0 ELSE 1 END), 0)
		FROM sync_records
		WHERE tenant_id = ?`, tenantID).Scan(&stats.Pending, &stats.Synced)
	if err != nil {
		return Stats{}, fmt.Errorf("outbox: stats: %w", err)
	}
	return stats, nil
}

// Tenants lists every tenant with at least one pending record.
func (r *Repository) Tenants(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT tenant_id FROM sync_records WHERE synced_at IS NULL ORDER BY tenant_id`)
	if err != nil {
		return nil, fmt.Errorf("outbox: list tenants: %w", err)
	}
	defer rows.Close()
	var tenants []string
	for rows.Next() {
		var tenant string
		if err := rows.Scan(&tenant); err != nil {
			return nil, fmt.Errorf("outbox: scan tenant: %w", err)
		}
		tenants = append(tenants, tenant)
	}
	return tenants, rows.Err()
}
