package inventory

import (
	"errors"
	"time"

	"github.com/odyssey-erp/odyssey-retail/internal/shared"
)

// Module tags written to Movement.RefModule.
const (
	RefManual   = "manual"
	RefSales    = "sales_order"
	RefPurchase = "purchase_order"
)

// Adjustment describes one signed change to a product's stock on hand.
type Adjustment struct {
	ProductID string `json:"productId" validate:"required"`
	Delta     int64  `json:"delta"`
	RefModule string `json:"refModule,omitempty"`
	RefID     string `json:"refId,omitempty"`
	Note      string `json:"note,omitempty" validate:"max=500"`
}

// Movement is one line of a product's stock card. Balance is the stock on hand
// right after the movement.
type Movement struct {
	ID        int64     `json:"id"`
	TenantID  string    `json:"tenantId"`
	ProductID string    `json:"productId"`
	Delta     int64     `json:"delta"`
	Balance   int64     `json:"balance"`
	RefModule string    `json:"refModule,omitempty"`
	RefID     string    `json:"refId,omitempty"`
	Note      string    `json:"note,omitempty"`
	PostedAt  time.Time `json:"postedAt"`
}

// StockCardFilter filters card entries. Zero times leave that bound open.
type StockCardFilter struct {
	From  time.Time
	To    time.Time
	Limit int
}

// ErrZeroDelta rejects adjustments that would not move stock.
var ErrZeroDelta = errors.New("inventory: delta must be non zero")

func (a Adjustment) validate() error {
	if err := shared.Validate(a); err != nil {
		return err
	}
	if a.Delta == 0 {
		return shared.Invalid("%v", ErrZeroDelta)
	}
	return nil
}
