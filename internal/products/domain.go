package products

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-retail/internal/shared"
)

// DiscountType says how a default discount is applied to the MRP.
type DiscountType string

const (
	DiscountAmount     DiscountType = "amount"
	DiscountPercentage DiscountType = "percentage"
)

var hundred = decimal.NewFromInt(100)

// Product is a sellable item. StockOnHand is signed: negative means oversold.
type Product struct {
	shared.Meta
	SKU                 string          `json:"sku"`
	Barcode             string          `json:"barcode,omitempty"`
	Title               string          `json:"title"`
	Description         string          `json:"description,omitempty"`
	Unit                string          `json:"unit,omitempty"`
	MRP                 decimal.Decimal `json:"mrp"`
	DefaultDiscount     decimal.Decimal `json:"defaultDiscount"`
	DefaultDiscountType DiscountType    `json:"defaultDiscountType"`
	SalePrice           decimal.Decimal `json:"salePrice"`
	SalePriceOverride   bool            `json:"salePriceOverride"`
	Cost                decimal.Decimal `json:"cost"`
	StockOnHand         int64           `json:"stockOnHand"`
	ReorderLevel        *int64          `json:"reorderLevel,omitempty"`
	IsArchived          bool            `json:"isArchived"`
}

// DeriveSalePrice applies the default discount to mrp. The result never drops below zero.
func DeriveSalePrice(mrp, discount decimal.Decimal, kind DiscountType) decimal.Decimal {
	price := mrp.Sub(discount)
	if kind == DiscountPercentage {
		price = mrp.Sub(mrp.Mul(discount).Div(hundred))
	}
	if price.IsNegative() {
		return decimal.Zero
	}
	return price
}

// reprice recomputes the derived sale price unless it was set explicitly.
func (p *Product) reprice() {
	if p.SalePriceOverride {
		return
	}
	p.SalePrice = DeriveSalePrice(p.MRP, p.DefaultDiscount, p.DefaultDiscountType)
}

// IsLowStock reports whether stock has reached the reorder threshold.
func (p Product) IsLowStock() bool {
	return p.ReorderLevel != nil && p.StockOnHand <= *p.ReorderLevel
}

func (p Product) matches(query string) bool {
	return shared.MatchesAny(query, p.Title, p.SKU, p.Barcode, p.Description)
}

// CreateInput carries the fields accepted when creating a product. SalePrice,
// when set, overrides the price derived from MRP and the default discount.
type CreateInput struct {
	SKU                 string           `json:"sku" validate:"max=64"`
	Barcode             string           `json:"barcode" validate:"max=64"`
	Title               string           `json:"title" validate:"required,max=200"`
	Description         string           `json:"description"`
	Unit                string           `json:"unit" validate:"max=20"`
	MRP                 decimal.Decimal  `json:"mrp" validate:"gte=0"`
	DefaultDiscount     decimal.Decimal  `json:"defaultDiscount" validate:"gte=0"`
	DefaultDiscountType DiscountType     `json:"defaultDiscountType" validate:"omitempty,oneof=amount percentage"`
	SalePrice           *decimal.Decimal `json:"salePrice,omitempty"`
	Cost                decimal.Decimal  `json:"cost" validate:"gte=0"`
	ReorderLevel        *int64           `json:"reorderLevel,omitempty"`
}

// UpdateInput is a partial update; nil fields are left unchanged. Stock is not
// updatable here, it moves only through stock adjustments. Setting
// SalePriceOverride to false returns the product to its derived price.
type UpdateInput struct {
	SKU                 *string          `json:"sku,omitempty"`
	Barcode             *string          `json:"barcode,omitempty"`
	Title               *string          `json:"title,omitempty"`
	Description         *string          `json:"description,omitempty"`
	Unit                *string          `json:"unit,omitempty"`
	MRP                 *decimal.Decimal `json:"mrp,omitempty"`
	DefaultDiscount     *decimal.Decimal `json:"defaultDiscount,omitempty"`
	DefaultDiscountType *DiscountType    `json:"defaultDiscountType,omitempty"`
	SalePrice           *decimal.Decimal `json:"salePrice,omitempty"`
	SalePriceOverride   *bool            `json:"salePriceOverride,omitempty"`
	Cost                *decimal.Decimal `json:"cost,omitempty"`
	ReorderLevel        *int64           `json:"reorderLevel,omitempty"`
	ClearReorderLevel   bool             `json:"clearReorderLevel,omitempty"`
	IsArchived          *bool            `json:"isArchived,omitempty"`
}

func validDiscount(amount decimal.Decimal, kind DiscountType) error {
	switch kind {
	case DiscountAmount:
	case DiscountPercentage:
		if amount.GreaterThan(hundred) {
			return shared.Invalid("percentage discount %s exceeds 100", amount)
		}
	default:
		return shared.Invalid("unknown discount type %q", kind)
	}
	if amount.IsNegative() {
		return shared.Invalid("discount must not be negative")
	}
	return nil
}

func notNegative(field string, v *decimal.Decimal) error {
	if v != nil && v.IsNegative() {
		return shared.Invalid("%s must not be negative", field)
	}
	return nil
}

func (in UpdateInput) validate() error {
	if in.Title != nil && *in.Title == "" {
		return shared.Invalid("title must not be empty")
	}
	for field, v := range map[string]*decimal.Decimal{"mrp": in.MRP, "defaultDiscount": in.DefaultDiscount, "salePrice": in.SalePrice, "cost": in.Cost} {
		if err := notNegative(field, v); err != nil {
			return err
		}
	}
	if in.ReorderLevel != nil && *in.ReorderLevel < 0 {
		return shared.Invalid("reorderLevel must not be negative")
	}
	return nil
}

func (in UpdateInput) apply(p *Product) {
	if in.SKU != nil {
		p.SKU = *in.SKU
	}
	if in.Barcode != nil {
		p.Barcode = *in.Barcode
	}
	if in.Title != nil {
		p.Title = *in.Title
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Unit != nil {
		p.Unit = *in.Unit
	}
	if in.MRP != nil {
		p.MRP = *in.MRP
	}
	if in.DefaultDiscount != nil {
		p.DefaultDiscount = *in.DefaultDiscount
	}
	if in.DefaultDiscountType != nil {
		p.DefaultDiscountType = *in.DefaultDiscountType
	}
	if in.SalePriceOverride != nil {
		p.SalePriceOverride = *in.SalePriceOverride
	}
	if in.SalePrice != nil {
		p.SalePrice = *in.SalePrice
		p.SalePriceOverride = true
	}
	if in.Cost != nil {
		p.Cost = *in.Cost
	}
	if in.ClearReorderLevel {
		p.ReorderLevel = nil
	}
	if in.ReorderLevel != nil {
		level := *in.ReorderLevel
		p.ReorderLevel = &level
	}
	if in.IsArchived != nil {
		p.IsArchived = *in.IsArchived
	}
	p.reprice()
}
