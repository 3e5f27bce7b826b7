package app

import (
	"context"
	"log/slog"

	"github.com/odyssey-erp/odyssey-retail/internal/inventory"
	"github.com/odyssey-erp/odyssey-retail/internal/observability"
	"github.com/odyssey-erp/odyssey-retail/internal/shared"
)

// LowStockAlerts logs and counts manual adjustments that leave a product at or
// below its reorder level.
type LowStockAlerts struct {
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

var _ inventory.AdjustmentObserver = (*LowStockAlerts)(nil)

// HandleStockAdjusted implements inventory.AdjustmentObserver.
func (a *LowStockAlerts) HandleStockAdjusted(ctx context.Context, evt inventory.StockAdjustedEvent) error {
	if !evt.BelowReorderLevel() {
		return nil
	}
	tenant := shared.TenantFromContext(ctx)
	if a.Logger != nil {
		a.Logger.Warn("product at or below reorder level",
			slog.String("tenant", tenant),
			slog.String("product_id", evt.ProductID),
			slog.String("title", evt.Title),
			slog.Int64("balance", evt.Balance),
			slog.Int64("reorder_level", *evt.ReorderLevel))
	}
	a.Metrics.ObserveLowStock(tenant)
	return nil
}
