package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/odyssey-erp/odyssey-retail/internal/platform/db"
	"github.com/odyssey-erp/odyssey-retail/internal/shared"
)

// Service appends and acknowledges sync records.
type Service struct {
	conn *sql.DB
	repo *Repository
	now  shared.Clock
}

// NewService builds Service. A nil clock uses the system clock.
func NewService(conn *sql.DB, now shared.Clock) *Service {
	if now == nil {
		now = shared.SystemClock
	}
	return &Service{conn: conn, repo: NewRepository(conn), now: now}
}

// Enqueue appends a pending record through q, which must be the transaction
// carrying the data change the record describes.
func (s *Service) Enqueue(ctx context.Context, q db.DBTX, entity EntityType, entityID string, action Action, payload any) (SyncRecord, error) {
	tenant, err := shared.RequireTenant(ctx)
	if err != nil {
		return SyncRecord{}, err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return SyncRecord{}, fmt.Errorf("outbox: encode payload: %w", err)
	}
	rec := SyncRecord{
		TenantID:  tenant,
		Entity:    entity,
		EntityID:  entityID,
		Action:    action,
		Payload:   body,
		Timestamp: s.now(),
	}
	id, err := NewRepository(q).Insert(ctx, rec)
	if err != nil {
		return SyncRecord{}, err
	}
	rec.ID = id
	return rec, nil
}

// ListPending returns every unacknowledged record of the tenant in insertion order.
func (s *Service) ListPending(ctx context.Context) ([]SyncRecord, error) {
	return s.ListPendingBatch(ctx, 0)
}

// ListPendingBatch returns at most limit pending records (all when limit <= 0).
func (s *Service) ListPendingBatch(ctx context.Context, limit int) ([]SyncRecord, error) {
	tenant, err := shared.RequireTenant(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListPending(ctx, tenant, limit)
}

// MarkSynced acknowledges ids. Ids that are unknown or already synced are ignored,
// so repeating a call is a no-op.
func (s *Service) MarkSynced(ctx context.Context, ids []int64) (int64, error) {
	tenant, err := shared.RequireTenant(ctx)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	var changed int64
	err = db.WithTx(ctx, s.conn, func(tx *sql.Tx) error {
		var err error
		changed, err = s.repo.WithTx(tx).MarkSynced(ctx, tenant, ids, s.now())
		return err
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

// History returns every record written for one entity.
func (s *Service) History(ctx context.Context, entity EntityType, entityID string) ([]SyncRecord, error) {
	tenant, err := shared.RequireTenant(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByEntity(ctx, tenant, entity, entityID)
}

// Stats reports queue depth for the tenant.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	tenant, err := shared.RequireTenant(ctx)
	if err != nil {
		return Stats{}, err
	}
	return s.repo.Stats(ctx, tenant)
}

// PendingTenants lists tenants with pending records.
func (s *Service) PendingTenants(ctx context.Context) ([]string, error) {
	return s.repo.Tenants(ctx)
}
