package products

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDeriveSalePrice(t *testing.T) {
	d := decimal.RequireFromString
	cases := []struct {
		name     string
		mrp      string
		discount string
		kind     DiscountType
		want     string
	}{
		{"percentage", "100", "10", DiscountPercentage, "90"},
		{"amount", "100", "15.50", DiscountAmount, "84.5"},
		{"no discount", "42", "0", DiscountAmount, "42"},
		{"fractional percentage", "99.99", "12.5", DiscountPercentage, "87.49125"},
		{"floored at zero", "10", "25", DiscountAmount, "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DeriveSalePrice(d(tc.mrp), d(tc.discount), tc.kind)
			assert.True(t, got.Equal(d(tc.want)), "got %s want %s", got, tc.want)
		})
	}
}

func TestIsLowStock(t *testing.T) {
	level := int64(5)
	assert.False(t, Product{StockOnHand: 3}.IsLowStock())
	assert.True(t, Product{StockOnHand: 5, ReorderLevel: &level}.IsLowStock())
	assert.True(t, Product{StockOnHand: -1, ReorderLevel: &level}.IsLowStock())
	assert.False(t, Product{StockOnHand: 6, ReorderLevel: &level}.IsLowStock())
}
