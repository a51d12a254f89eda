package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// CalcType enumerates the supported discount calculation strategies.
type CalcType string

const (
	// CalcPercent applies a percentage of the subtotal.
	CalcPercent CalcType = "percent"
	// CalcAmount applies a fixed monetary amount capped at the subtotal.
	CalcAmount CalcType = "amount"
)

var (
	// ErrNotFound is returned when no active coupon matches the given code.
	ErrNotFound = errors.New("invalid or expired coupon code")
	// ErrNotYetActive is returned when a coupon's valid_from is in the future.
	ErrNotYetActive = errors.New("coupon is not yet active")
	// ErrExpired is returned when a coupon's valid_to is in the past.
	ErrExpired = errors.New("coupon has expired")
)

// MinOrderAmountError indicates the order subtotal is below the coupon's
// minimum order amount.
type MinOrderAmountError struct {
	Min decimal.Decimal
}

func (e *MinOrderAmountError) Error() string {
	return "minimum order amount of " + e.Min.StringFixed(2) + " required"
}

// Coupon is a one-off discount code configured by the store admin.
// Codes are unique and matched case-insensitively.
type Coupon struct {
	ID             string
	Code           string
	CalcType       CalcType
	Amount         decimal.Decimal
	MinOrderAmount decimal.Decimal // zero means no minimum
	ValidFrom      *time.Time
	ValidTo        *time.Time
	IsActive       bool
}

// Discount holds a computed coupon discount for a given subtotal.
type Discount struct {
	Code     string
	Amount   decimal.Decimal
	Type     CalcType
	RawValue decimal.Decimal
}

// Repository provides lookup of coupons by their code.
type Repository interface {
	// FindByCode looks up an active coupon by case-insensitive code match.
	// It returns ErrNotFound when no active coupon exists for the code.
	FindByCode(ctx context.Context, code string) (*Coupon, error)
}
