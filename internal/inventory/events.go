package inventory

import "time"

// StockAdjustedEvent is published after a manual adjustment commits.
type StockAdjustedEvent struct {
	ProductID    string
	Title        string
	Delta        int64
	Balance      int64
	ReorderLevel *int64
	PostedAt     time.Time
}

// BelowReorderLevel reports whether the adjustment left the product at or under its threshold.
func (e StockAdjustedEvent) BelowReorderLevel() bool {
	return e.ReorderLevel != nil && e.Balance <= *e.ReorderLevel
}
