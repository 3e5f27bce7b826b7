package orders

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-retail/internal/products"
	"github.com/odyssey-erp/odyssey-retail/internal/shared"
	"github.com/odyssey-erp/odyssey-retail/internal/tax"
)

var hundred = decimal.NewFromInt(100)

// taxRule computes tax for a taxable base. afterDiscount selects whether the
// base is the subtotal net of the order discount or the raw subtotal.
type taxRule struct {
	compute       func(base decimal.Decimal) (tax.Breakdown, error)
	afterDiscount bool
}

// structuredTax taxes the discount-adjusted subtotal with jurisdiction settings.
func structuredTax(settings tax.Settings, state string) taxRule {
	return taxRule{
		compute: func(base decimal.Decimal) (tax.Breakdown, error) {
			return tax.Calculate(base, settings, state)
		},
		afterDiscount: true,
	}
}

// flatTax taxes the raw subtotal with one legacy percentage.
func flatTax(rate decimal.Decimal) taxRule {
	return taxRule{
		compute: func(base decimal.Decimal) (tax.Breakdown, error) {
			return tax.Flat(base, rate), nil
		},
	}
}

// figures are the computed money columns of an order.
type figures struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Tax      tax.Breakdown
	Total    decimal.Decimal
}

func (f figures) cgst() decimal.Decimal { return orZero(f.Tax.CGST) }
func (f figures) sgst() decimal.Decimal { return orZero(f.Tax.SGST) }

func orZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

// subtotalOf sums line totals.
func subtotalOf[L Line](lines []L) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.LineTotal())
	}
	return sum
}

// priceSalesLines turns inputs into items and rejects lines that price below zero.
func priceSalesLines(in []SalesItemInput) ([]SalesItem, error) {
	items := make([]SalesItem, 0, len(in))
	for i, line := range in {
		total := line.UnitPrice.Mul(decimal.NewFromInt(line.Quantity)).Sub(line.Discount)
		if total.IsNegative() {
			return nil, shared.Invalid("item %d: discount %s exceeds line amount", i+1, line.Discount)
		}
		items = append(items, SalesItem{
			ProductID: line.ProductID,
			Position:  i + 1,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Discount:  line.Discount,
			Total:     total,
		})
	}
	return items, nil
}

func pricePurchaseLines(in []PurchaseItemInput) []PurchaseItem {
	items := make([]PurchaseItem, 0, len(in))
	for i, line := range in {
		items = append(items, PurchaseItem{
			ProductID: line.ProductID,
			Position:  i + 1,
			Quantity:  line.Quantity,
			UnitCost:  line.UnitCost,
			Total:     line.UnitCost.Mul(decimal.NewFromInt(line.Quantity)),
		})
	}
	return items
}

// composeSales prices a sales order. A percentage discount is taken on the
// subtotal plus the tax that subtotal would carry undiscounted. With
// roundFigure, a fractional total is rounded to the nearest unit only when that
// lowers it, and the difference is added to the discount.
func composeSales(items []SalesItem, discount decimal.Decimal, kind products.DiscountType, roundFigure bool, rule taxRule) (figures, error) {
	subtotal := subtotalOf(items)
	undiscounted, err := rule.compute(subtotal)
	if err != nil {
		return figures{}, shared.Invalid("%v", err)
	}

	var orderDiscount decimal.Decimal
	switch kind {
	case products.DiscountAmount:
		orderDiscount = discount
	case products.DiscountPercentage:
		if discount.GreaterThan(hundred) {
			return figures{}, shared.Invalid("percentage discount %s exceeds 100", discount)
		}
		orderDiscount = subtotal.Add(undiscounted.Tax).Mul(discount).Div(hundred)
	default:
		return figures{}, shared.Invalid("unknown discount type %q", kind)
	}

	breakdown := undiscounted
	if rule.afterDiscount {
		if breakdown, err = rule.compute(subtotal.Sub(orderDiscount)); err != nil {
			return figures{}, shared.Invalid("%v", err)
		}
	}

	f := figures{Subtotal: subtotal, Discount: orderDiscount, Tax: breakdown}
	f.Total = subtotal.Sub(orderDiscount).Add(breakdown.Tax)
	if roundFigure {
		if rounded := f.Total.Round(0); rounded.LessThan(f.Total) {
			f.Discount = f.Discount.Add(f.Total.Sub(rounded))
			f.Total = rounded
		}
	}
	if f.Total.IsNegative() {
		return figures{}, shared.Invalid("order total %s is negative", f.Total)
	}
	return f, nil
}

// composePurchase prices a purchase order: subtotal plus tax, no order discount
// and no rounding.
func composePurchase(items []PurchaseItem, rule taxRule) (figures, error) {
	subtotal := subtotalOf(items)
	breakdown, err := rule.compute(subtotal)
	if err != nil {
		return figures{}, shared.Invalid("%v", err)
	}
	return figures{Subtotal: subtotal, Discount: decimal.Zero, Tax: breakdown, Total: subtotal.Add(breakdown.Tax)}, nil
}
