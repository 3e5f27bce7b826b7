// Package tax maps a taxable amount and jurisdiction settings to a tax breakdown.
package tax

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Type selects between the two mutually exclusive tax representations.
type Type string

const (
	// TypeGST applies a single combined rate.
	TypeGST Type = "gst"
	// TypeCGSTSGST splits the tax into central and state components.
	TypeCGSTSGST Type = "cgst_sgst"
)

// Valid reports whether t is a known tax type.
func (t Type) Valid() bool {
	return t == TypeGST || t == TypeCGSTSGST
}

// Rate is one jurisdiction's tax configuration.
type Rate struct {
	Type     Type            `json:"type" validate:"required,oneof=gst cgst_sgst"`
	GSTRate  decimal.Decimal `json:"gstRate" validate:"gte=0,lte=100"`
	CGSTRate decimal.Decimal `json:"cgstRate" validate:"gte=0,lte=100"`
	SGSTRate decimal.Decimal `json:"sgstRate" validate:"gte=0,lte=100"`
}

// Settings is the tenant default rate plus optional per-state overrides.
type Settings struct {
	Rate
	StateRates map[string]Rate `json:"stateRates,omitempty" validate:"omitempty,dive"`
}

// Breakdown is the computed tax. CGST and SGST are only set for cgst_sgst.
type Breakdown struct {
	Tax  decimal.Decimal  `json:"tax"`
	CGST *decimal.Decimal `json:"cgst,omitempty"`
	SGST *decimal.Decimal `json:"sgst,omitempty"`
}

// Resolve picks the override for state when one exists, otherwise the defaults.
// State lookup ignores surrounding whitespace and letter case.
func (s Settings) Resolve(state string) Rate {
	state = strings.TrimSpace(state)
	if state == "" || len(s.StateRates) == 0 {
		return s.Rate
	}
	if rate, ok := s.StateRates[state]; ok {
		return rate
	}
	for key, rate := range s.StateRates {
		if strings.EqualFold(strings.TrimSpace(key), state) {
			return rate
		}
	}
	return s.Rate
}

// ErrUnknownType is returned for a rate whose type is neither gst nor cgst_sgst.
var ErrUnknownType = errors.New("tax: unknown tax type")

var hundred = decimal.NewFromInt(100)

// Calculate computes tax on subtotal. No rounding is applied.
func Calculate(subtotal decimal.Decimal, settings Settings, state string) (Breakdown, error) {
	rate := settings.Resolve(state)
	switch rate.Type {
	case TypeGST:
		return Breakdown{Tax: subtotal.Mul(rate.GSTRate).Div(hundred)}, nil
	case TypeCGSTSGST:
		cgst := subtotal.Mul(rate.CGSTRate).Div(hundred)
		sgst := subtotal.Mul(rate.SGSTRate).Div(hundred)
		return Breakdown{Tax: cgst.Add(sgst), CGST: &cgst, SGST: &sgst}, nil
	default:
		return Breakdown{}, fmt.Errorf("%w %q", ErrUnknownType, rate.Type)
	}
}

// Flat computes tax with a single legacy percentage rate.
func Flat(subtotal, ratePercent decimal.Decimal) Breakdown {
	return Breakdown{Tax: subtotal.Mul(ratePercent).Div(hundred)}
}
