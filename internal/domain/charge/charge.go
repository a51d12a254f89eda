// Package charge models configurable per-order charge rules: taxes, fees,
// and standing promotional deductions that apply to every order, as opposed
// to one-off coupon codes.
package charge

import (
	"context"

	"github.com/shopspring/decimal"
)

// Type classifies a rule as adding to or subtracting from the order total.
type Type string

const (
	// TypeCharge adds the computed amount to the total (taxes, fees).
	TypeCharge Type = "charge"
	// TypeDiscount subtracts the computed amount from the total.
	TypeDiscount Type = "discount"
)

// CalcType enumerates how a rule's amount is computed.
type CalcType string

const (
	CalcPercent CalcType = "percent"
	CalcAmount  CalcType = "amount"
)

var hundred = decimal.NewFromInt(100)

// Rule is an admin-configured charge applied to every order at quote time.
type Rule struct {
	ID        string
	Label     string
	Type      Type
	CalcType  CalcType
	Amount    decimal.Decimal
	IsActive  bool
	SortOrder int
}

// AppliedAmount computes the monetary amount this rule contributes, given
// the order subtotal.
//
// Percent rules are computed against the original subtotal, not the
// post-discount base. TODO(product): confirm whether tax-like rules should
// instead apply after coupon discounts; current billing policy is preserved
// as-is.
func (r *Rule) AppliedAmount(subtotal decimal.Decimal) decimal.Decimal {
	if r.CalcType == CalcPercent {
		return subtotal.Mul(r.Amount).Div(hundred).Round(2)
	}
	return r.Amount.Round(2)
}

// Repository provides lookup of charge rules.
type Repository interface {
	// ListActive returns all active rules ordered by SortOrder.
	ListActive(ctx context.Context) ([]Rule, error)
}
