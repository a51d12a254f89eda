package coupon

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Validate checks a coupon against the given subtotal at the given time.
// Checks run in a fixed order: active flag, valid_from, valid_to, minimum
// order amount. The first failing check determines the returned error.
func Validate(c *Coupon, subtotal decimal.Decimal, now time.Time) error {
	if !c.IsActive {
		return ErrNotFound
	}
	if c.ValidFrom != nil && c.ValidFrom.After(now) {
		return ErrNotYetActive
	}
	if c.ValidTo != nil && c.ValidTo.Before(now) {
		return ErrExpired
	}
	if c.MinOrderAmount.IsPositive() && subtotal.LessThan(c.MinOrderAmount) {
		return &MinOrderAmountError{Min: c.MinOrderAmount}
	}
	return nil
}

// Compute calculates the discount a coupon yields on the given subtotal.
// The effective amount never exceeds the subtotal.
func Compute(c *Coupon, subtotal decimal.Decimal) Discount {
	var amount decimal.Decimal
	if c.CalcType == CalcPercent {
		amount = subtotal.Mul(c.Amount).Div(hundred)
	} else {
		amount = c.Amount
	}
	amount = decimal.Min(amount, subtotal)
	if amount.IsNegative() {
		amount = decimal.Zero
	}

	return Discount{
		Code:     c.Code,
		Amount:   amount.Round(2),
		Type:     c.CalcType,
		RawValue: c.Amount,
	}
}

// IsValidationError reports whether err is one of the coupon validation
// failures, as opposed to a lookup/persistence failure. The tolerant quote
// path ignores validation errors and propagates everything else.
func IsValidationError(err error) bool {
	var minErr *MinOrderAmountError
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrNotYetActive) ||
		errors.Is(err, ErrExpired) ||
		errors.As(err, &minErr)
}
