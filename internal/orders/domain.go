package orders

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-retail/internal/products"
	"github.com/odyssey-erp/odyssey-retail/internal/shared"
	"github.com/odyssey-erp/odyssey-retail/internal/tax"
)

// SalesStatus values form an open set: any status may follow any other.
type SalesStatus string

const (
	SalesDraft     SalesStatus = "draft"
	SalesConfirmed SalesStatus = "confirmed"
	SalesFulfilled SalesStatus = "fulfilled"
	SalesPaid      SalesStatus = "paid"
	SalesUnpaid    SalesStatus = "unpaid"
	SalesComplete  SalesStatus = "complete"
	SalesRefund    SalesStatus = "refund"
	SalesCancelled SalesStatus = "cancelled"
)

// Valid reports whether s is a known sales status.
func (s SalesStatus) Valid() bool {
	switch s {
	case SalesDraft, SalesConfirmed, SalesFulfilled, SalesPaid, SalesUnpaid, SalesComplete, SalesRefund, SalesCancelled:
		return true
	}
	return false
}

// PurchaseStatus values form an open set like SalesStatus.
type PurchaseStatus string

const (
	PurchaseDraft     PurchaseStatus = "draft"
	PurchaseOrdered   PurchaseStatus = "ordered"
	PurchaseReceived  PurchaseStatus = "received"
	PurchasePaid      PurchaseStatus = "paid"
	PurchaseUnpaid    PurchaseStatus = "unpaid"
	PurchaseComplete  PurchaseStatus = "complete"
	PurchaseRefund    PurchaseStatus = "refund"
	PurchaseCancelled PurchaseStatus = "cancelled"
)

// Valid reports whether s is a known purchase status.
func (s PurchaseStatus) Valid() bool {
	switch s {
	case PurchaseDraft, PurchaseOrdered, PurchaseReceived, PurchasePaid, PurchaseUnpaid, PurchaseComplete, PurchaseRefund, PurchaseCancelled:
		return true
	}
	return false
}

// Line is the priceable part shared by sales and purchase items.
type Line interface {
	Qty() int64
	LineTotal() decimal.Decimal
}

// SalesItem is one priced line of a sales order.
type SalesItem struct {
	ID           string          `json:"id"`
	SalesOrderID string          `json:"salesOrderId"`
	ProductID    string          `json:"productId"`
	Position     int             `json:"position"`
	Quantity     int64           `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	Discount     decimal.Decimal `json:"discount"`
	Total        decimal.Decimal `json:"lineTotal"`
}

func (i SalesItem) Qty() int64                 { return i.Quantity }
func (i SalesItem) LineTotal() decimal.Decimal { return i.Total }

// PurchaseItem is one costed line of a purchase order.
type PurchaseItem struct {
	ID              string          `json:"id"`
	PurchaseOrderID string          `json:"purchaseOrderId"`
	ProductID       string          `json:"productId"`
	Position        int             `json:"position"`
	Quantity        int64           `json:"quantity"`
	UnitCost        decimal.Decimal `json:"unitCost"`
	Total           decimal.Decimal `json:"lineTotal"`
}

func (i PurchaseItem) Qty() int64                 { return i.Quantity }
func (i PurchaseItem) LineTotal() decimal.Decimal { return i.Total }

// SalesOrder is a composed sale. Total is always subtotal - discount + tax,
// where discount is the resolved order-level amount including any rounding.
type SalesOrder struct {
	shared.Meta
	CustomerID    string                `json:"customerId"`
	Status        SalesStatus           `json:"status"`
	IssuedDate    time.Time             `json:"issuedDate"`
	DueDate       *time.Time            `json:"dueDate,omitempty"`
	Subtotal      decimal.Decimal       `json:"subtotal"`
	Discount      decimal.Decimal       `json:"discount"`
	DiscountType  products.DiscountType `json:"discountType"`
	DiscountValue decimal.Decimal       `json:"discountValue"`
	Tax           decimal.Decimal       `json:"tax"`
	CGST          decimal.Decimal       `json:"cgst"`
	SGST          decimal.Decimal       `json:"sgst"`
	Total         decimal.Decimal       `json:"total"`
	PaidAmount    decimal.Decimal       `json:"paidAmount"`
	BalanceDue    decimal.Decimal       `json:"balanceDue"`
	PaymentMethod string                `json:"paymentMethod,omitempty"`
	RoundFigure   bool                  `json:"roundFigure"`
	Notes         string                `json:"notes,omitempty"`
}

// SalesOrderWithItems is a sales order with its lines in position order.
type SalesOrderWithItems struct {
	SalesOrder SalesOrder  `json:"salesOrder"`
	Items      []SalesItem `json:"items"`
}

// PurchaseOrder is a composed purchase. SupplierName is a snapshot taken at
// creation and is not updated when the supplier is renamed.
type PurchaseOrder struct {
	shared.Meta
	SupplierID     string          `json:"supplierId"`
	SupplierName   string          `json:"supplierName"`
	Status         PurchaseStatus  `json:"status"`
	OrderDate      time.Time       `json:"orderDate"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Tax            decimal.Decimal `json:"tax"`
	CGST           decimal.Decimal `json:"cgst"`
	SGST           decimal.Decimal `json:"sgst"`
	Total          decimal.Decimal `json:"total"`
	PaidAmount     decimal.Decimal `json:"paidAmount"`
	BalanceDue     decimal.Decimal `json:"balanceDue"`
	AddToInventory bool            `json:"addToInventory"`
	Notes          string          `json:"notes,omitempty"`
}

// PurchaseOrderWithItems is a purchase order with its lines in position order.
type PurchaseOrderWithItems struct {
	PurchaseOrder PurchaseOrder  `json:"purchaseOrder"`
	Items         []PurchaseItem `json:"items"`
}

// SalesItemInput is one requested sales line.
type SalesItemInput struct {
	ProductID string          `json:"productId" validate:"required"`
	Quantity  int64           `json:"quantity" validate:"gt=0"`
	UnitPrice decimal.Decimal `json:"unitPrice" validate:"gte=0"`
	Discount  decimal.Decimal `json:"discount" validate:"gte=0"`
}

// SalesOrderInput is a sales draft. Tax overrides the configured settings when set.
type SalesOrderInput struct {
	CustomerID    string                `json:"customerId" validate:"required"`
	Status        SalesStatus           `json:"status"`
	IssuedDate    time.Time             `json:"issuedDate"`
	DueDate       *time.Time            `json:"dueDate,omitempty"`
	Items         []SalesItemInput      `json:"items" validate:"required,min=1,dive"`
	Discount      decimal.Decimal       `json:"discount" validate:"gte=0"`
	DiscountType  products.DiscountType `json:"discountType"`
	PaidAmount    decimal.Decimal       `json:"paidAmount" validate:"gte=0"`
	PaymentMethod string                `json:"paymentMethod" validate:"max=50"`
	RoundFigure   bool                  `json:"roundFigure"`
	Notes         string                `json:"notes"`
	Tax           *tax.Settings         `json:"tax,omitempty"`
}

// PurchaseItemInput is one requested purchase line.
type PurchaseItemInput struct {
	ProductID string          `json:"productId" validate:"required"`
	Quantity  int64           `json:"quantity" validate:"gt=0"`
	UnitCost  decimal.Decimal `json:"unitCost" validate:"gte=0"`
}

// PurchaseOrderInput is a purchase draft. Purchases carry no order-level discount.
type PurchaseOrderInput struct {
	SupplierID     string              `json:"supplierId" validate:"required"`
	Status         PurchaseStatus      `json:"status"`
	OrderDate      time.Time           `json:"orderDate"`
	Items          []PurchaseItemInput `json:"items" validate:"required,min=1,dive"`
	PaidAmount     decimal.Decimal     `json:"paidAmount" validate:"gte=0"`
	AddToInventory bool                `json:"addToInventory"`
	Notes          string              `json:"notes"`
	Tax            *tax.Settings       `json:"tax,omitempty"`
}

// Kind names an order table for delete guards and logs.
type Kind string

const (
	KindSales    Kind = "sales_order"
	KindPurchase Kind = "purchase_order"
)

// DeleteGuard vetoes an order deletion, typically because something outside
// this store (an invoice, a shipment) still references it. Any returned error
// blocks the deletion and is reported as a conflict.
type DeleteGuard func(ctx context.Context, kind Kind, orderID string) error

// ListFilter narrows order listings.
type ListFilter struct {
	Status  string
	PartyID string
	From    time.Time
	To      time.Time
}

func balanceDue(total, paid decimal.Decimal) decimal.Decimal {
	due := total.Sub(paid)
	if due.IsNegative() {
		return decimal.Zero
	}
	return due
}
