package customers

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-retail/internal/shared"
)

// Type distinguishes buyers from suppliers. Both live in the same table.
type Type string

const (
	TypeCustomer Type = "customer"
	TypeSupplier Type = "supplier"
)

// Valid reports whether t is a known party type.
func (t Type) Valid() bool {
	return t == TypeCustomer || t == TypeSupplier
}

// Customer is a trading party. State is the tax jurisdiction used when pricing its orders.
type Customer struct {
	shared.Meta
	Name       string          `json:"name"`
	Type       Type            `json:"type"`
	Email      string          `json:"email,omitempty"`
	Phone      string          `json:"phone,omitempty"`
	GST        string          `json:"gst,omitempty"`
	Address    string          `json:"address,omitempty"`
	State      string          `json:"state,omitempty"`
	Balance    decimal.Decimal `json:"balance"`
	Notes      string          `json:"notes,omitempty"`
	IsArchived bool            `json:"isArchived"`
}

// CreateInput carries the fields accepted when creating a customer.
type CreateInput struct {
	Name    string          `json:"name" validate:"required,max=200"`
	Type    Type            `json:"type" validate:"omitempty,oneof=customer supplier"`
	Email   string          `json:"email" validate:"omitempty,email"`
	Phone   string          `json:"phone" validate:"max=40"`
	GST     string          `json:"gst" validate:"max=40"`
	Address string          `json:"address"`
	State   string          `json:"state" validate:"max=100"`
	Balance decimal.Decimal `json:"balance"`
	Notes   string          `json:"notes"`
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Name       *string          `json:"name,omitempty"`
	Type       *Type            `json:"type,omitempty"`
	Email      *string          `json:"email,omitempty"`
	Phone      *string          `json:"phone,omitempty"`
	GST        *string          `json:"gst,omitempty"`
	Address    *string          `json:"address,omitempty"`
	State      *string          `json:"state,omitempty"`
	Balance    *decimal.Decimal `json:"balance,omitempty"`
	Notes      *string          `json:"notes,omitempty"`
	IsArchived *bool            `json:"isArchived,omitempty"`
}

// ListFilter narrows listings. Archived customers are never listed.
type ListFilter struct {
	Type Type
}

func (in UpdateInput) validate() error {
	if in.Name != nil && *in.Name == "" {
		return shared.Invalid("name must not be empty")
	}
	if in.Type != nil && !in.Type.Valid() {
		return shared.Invalid("unknown customer type %q", *in.Type)
	}
	return nil
}

func (in UpdateInput) apply(c *Customer) {
	if in.Name != nil {
		c.Name = *in.Name
	}
	if in.Type != nil {
		c.Type = *in.Type
	}
	if in.Email != nil {
		c.Email = *in.Email
	}
	if in.Phone != nil {
		c.Phone = *in.Phone
	}
	if in.GST != nil {
		c.GST = *in.GST
	}
	if in.Address != nil {
		c.Address = *in.Address
	}
	if in.State != nil {
		c.State = *in.State
	}
	if in.Balance != nil {
		c.Balance = *in.Balance
	}
	if in.Notes != nil {
		c.Notes = *in.Notes
	}
	if in.IsArchived != nil {
		c.IsArchived = *in.IsArchived
	}
}

// matches applies the free-text search over name, email, phone and GST number.
func (c Customer) matches(query string) bool {
	return shared.MatchesAny(query, c.Name, c.Email, c.Phone, c.GST)
}
