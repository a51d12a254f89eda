// Package checkout implements the pricing engine: it composes subtotal,
// coupon discount, delivery fee, and configured charge rules into order
// totals in a fixed evaluation order.
package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-api/internal/domain/charge"
	"github.com/xenking/storefront-api/internal/domain/coupon"
)

// CartItem is one line of a checkout request. Cart items are ephemeral;
// they are constructed per request and never persisted on their own.
type CartItem struct {
	ProductID string
	VariantID string
	Quantity  int
	Price     decimal.Decimal
}

// AppliedDelivery is the delivery option snapshot included in a quote.
type AppliedDelivery struct {
	ID     string
	Label  string
	Amount decimal.Decimal
}

// AppliedCharge is one charge rule's contribution to a quote. Amount is
// recorded regardless of sign; Type says whether it was added or subtracted.
type AppliedCharge struct {
	ID       string
	Label    string
	Amount   decimal.Decimal
	Type     charge.Type
	CalcType charge.CalcType
	RawValue decimal.Decimal
}

// Totals is the full breakdown of a priced cart.
type Totals struct {
	Subtotal decimal.Decimal
	Delivery *AppliedDelivery
	Discount *coupon.Discount
	Charges  []AppliedCharge
	Total    decimal.Decimal
}

// Subtotal returns the sum of price x quantity over all items. Callers are
// responsible for validating quantities and prices as non-negative.
func Subtotal(items []CartItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		qty := decimal.NewFromInt(int64(item.Quantity))
		sum = sum.Add(item.Price.Mul(qty))
	}
	return sum
}
