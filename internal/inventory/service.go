package inventory

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/odyssey-erp/odyssey-retail/internal/outbox"
	"github.com/odyssey-erp/odyssey-retail/internal/platform/db"
	"github.com/odyssey-erp/odyssey-retail/internal/products"
	"github.com/odyssey-erp/odyssey-retail/internal/shared"
)

// Service is the stock ledger: the only writer of products.stock_on_hand.
type Service struct {
	conn     *sql.DB
	repo     *Repository
	outbox   *outbox.Service
	now      shared.Clock
	logger   *slog.Logger
	observer AdjustmentObserver
}

// NewService builds Service. A nil clock uses the system clock; observer may be nil.
func NewService(conn *sql.DB, sync *outbox.Service, now shared.Clock, logger *slog.Logger, observer AdjustmentObserver) *Service {
	if now == nil {
		now = shared.SystemClock
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{conn: conn, repo: NewRepository(conn), outbox: sync, now: now, logger: logger, observer: observer}
}

// AdjustProductStock moves a product's stock by delta in its own transaction.
func (s *Service) AdjustProductStock(ctx context.Context, productID string, delta int64) (products.Product, error) {
	return s.AdjustStock(ctx, Adjustment{ProductID: productID, Delta: delta, RefModule: RefManual})
}

// AdjustStock applies adj in its own transaction and notifies the observer once
// it has committed. Negative results are allowed and mean the product is oversold.
func (s *Service) AdjustStock(ctx context.Context, adj Adjustment) (products.Product, error) {
	if adj.RefModule == "" {
		adj.RefModule = RefManual
	}
	if err := adj.validate(); err != nil {
		return products.Product{}, err
	}
	var (
		updated products.Product
		posted  Movement
	)
	err := db.WithTx(ctx, s.conn, func(tx *sql.Tx) error {
		var err error
		updated, posted, err = s.apply(ctx, tx, adj)
		return err
	})
	if err != nil {
		return products.Product{}, err
	}

	if s.observer != nil {
		evt := StockAdjustedEvent{
			ProductID:    updated.ID,
			Title:        updated.Title,
			Delta:        posted.Delta,
			Balance:      posted.Balance,
			ReorderLevel: updated.ReorderLevel,
			PostedAt:     posted.PostedAt,
		}
		if err := s.observer.HandleStockAdjusted(ctx, evt); err != nil {
			s.logger.Warn("stock adjustment observer failed",
				slog.String("product_id", updated.ID), slog.Any("error", err))
		}
	}
	return updated, nil
}

// Apply adjusts stock inside the caller's transaction. Order composition uses
// it so stock effects commit or roll back with the order.
func (s *Service) Apply(ctx context.Context, q db.DBTX, adj Adjustment) (products.Product, error) {
	if err := adj.validate(); err != nil {
		return products.Product{}, err
	}
	p, _, err := s.apply(ctx, q, adj)
	return p, err
}

// apply increments the counter with one relative UPDATE, appends the stock card
// line and queues a delta record so remote consumers can add rather than overwrite.
func (s *Service) apply(ctx context.Context, q db.DBTX, adj Adjustment) (products.Product, Movement, error) {
	tenant, err := shared.RequireTenant(ctx)
	if err != nil {
		return products.Product{}, Movement{}, err
	}
	at := s.now()
	p, err := products.NewRepository(q).IncrementStock(ctx, tenant, adj.ProductID, adj.Delta, at)
	if err != nil {
		return products.Product{}, Movement{}, err
	}
	m := Movement{
		TenantID:  tenant,
		ProductID: p.ID,
		Delta:     adj.Delta,
		Balance:   p.StockOnHand,
		RefModule: adj.RefModule,
		RefID:     adj.RefID,
		Note:      adj.Note,
		PostedAt:  at,
	}
	if m.ID, err = NewRepository(q).InsertMovement(ctx, m); err != nil {
		return products.Product{}, Movement{}, err
	}
	delta := outbox.StockDelta{ProductID: p.ID, Delta: adj.Delta}
	if _, err := s.outbox.Enqueue(ctx, q, outbox.EntityProductStock, p.ID, outbox.ActionUpdate, delta); err != nil {
		return products.Product{}, Movement{}, err
	}
	return p, m, nil
}

// StockCard returns the movements of one product.
func (s *Service) StockCard(ctx context.Context, productID string, filter StockCardFilter) ([]Movement, error) {
	tenant, err := shared.RequireTenant(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := products.NewRepository(s.conn).Get(ctx, tenant, productID); err != nil {
		return nil, err
	}
	if !filter.From.IsZero() {
		filter.From = filter.From.UTC()
	}
	if !filter.To.IsZero() {
		filter.To = filter.To.UTC()
	}
	return s.repo.GetStockCard(ctx, tenant, productID, filter)
}
