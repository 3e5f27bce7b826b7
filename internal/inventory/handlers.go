package inventory

import "context"

// AdjustmentObserver receives committed manual stock adjustments.
type AdjustmentObserver interface {
	HandleStockAdjusted(ctx context.Context, evt StockAdjustedEvent) error
}
