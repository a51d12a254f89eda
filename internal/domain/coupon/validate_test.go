package coupon

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestValidate(t *testing.T) {
	fixedNow := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	pastTime := fixedNow.Add(-24 * time.Hour)
	futureTime := fixedNow.Add(24 * time.Hour)

	tests := []struct {
		name     string
		coupon   *Coupon
		subtotal decimal.Decimal
		wantErr  error
	}{
		{
			name: "active coupon with no constraints",
			coupon: &Coupon{
				Code:     "SAVE10",
				CalcType: CalcPercent,
				Amount:   d("10"),
				IsActive: true,
			},
			subtotal: d("100"),
		},
		{
			name: "inactive coupon",
			coupon: &Coupon{
				Code:     "OFF",
				CalcType: CalcPercent,
				Amount:   d("10"),
				IsActive: false,
			},
			subtotal: d("100"),
			wantErr:  ErrNotFound,
		},
		{
			name: "valid_from in future",
			coupon: &Coupon{
				Code:      "SOON",
				CalcType:  CalcPercent,
				Amount:    d("10"),
				ValidFrom: &futureTime,
				IsActive:  true,
			},
			subtotal: d("100"),
			wantErr:  ErrNotYetActive,
		},
		{
			name: "valid_to in past",
			coupon: &Coupon{
				Code:     "OLD",
				CalcType: CalcPercent,
				Amount:   d("10"),
				ValidTo:  &pastTime,
				IsActive: true,
			},
			subtotal: d("100"),
			wantErr:  ErrExpired,
		},
		{
			name: "within valid window",
			coupon: &Coupon{
				Code:      "WINDOW",
				CalcType:  CalcAmount,
				Amount:    d("5"),
				ValidFrom: &pastTime,
				ValidTo:   &futureTime,
				IsActive:  true,
			},
			subtotal: d("100"),
		},
		{
			name: "subtotal below minimum order amount",
			coupon: &Coupon{
				Code:           "MIN50",
				CalcType:       CalcAmount,
				Amount:         d("5"),
				MinOrderAmount: d("50"),
				IsActive:       true,
			},
			subtotal: d("30"),
			wantErr:  &MinOrderAmountError{},
		},
		{
			name: "subtotal equals minimum order amount",
			coupon: &Coupon{
				Code:           "MIN50",
				CalcType:       CalcAmount,
				Amount:         d("5"),
				MinOrderAmount: d("50"),
				IsActive:       true,
			},
			subtotal: d("50"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.coupon, tt.subtotal, fixedNow)

			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			if _, ok := tt.wantErr.(*MinOrderAmountError); ok {
				var minErr *MinOrderAmountError
				require.ErrorAs(t, err, &minErr)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name       string
		coupon     *Coupon
		subtotal   decimal.Decimal
		wantAmount decimal.Decimal
	}{
		{
			name:       "percent 10% of 100",
			coupon:     &Coupon{Code: "PCT10", CalcType: CalcPercent, Amount: d("10"), IsActive: true},
			subtotal:   d("100"),
			wantAmount: d("10"),
		},
		{
			name:       "fixed amount",
			coupon:     &Coupon{Code: "FLAT9", CalcType: CalcAmount, Amount: d("9"), IsActive: true},
			subtotal:   d("100"),
			wantAmount: d("9"),
		},
		{
			name:       "percent over 100 clamped to subtotal",
			coupon:     &Coupon{Code: "MEGA", CalcType: CalcPercent, Amount: d("1000"), IsActive: true},
			subtotal:   d("50"),
			wantAmount: d("50"),
		},
		{
			name:       "fixed amount clamped to subtotal",
			coupon:     &Coupon{Code: "BIG", CalcType: CalcAmount, Amount: d("200"), IsActive: true},
			subtotal:   d("80"),
			wantAmount: d("80"),
		},
		{
			name:       "rounds to 2 decimal places",
			coupon:     &Coupon{Code: "PCT33", CalcType: CalcPercent, Amount: d("33.33"), IsActive: true},
			subtotal:   d("10.01"),
			wantAmount: d("3.34"),
		},
		{
			name:       "zero subtotal",
			coupon:     &Coupon{Code: "PCT10", CalcType: CalcPercent, Amount: d("10"), IsActive: true},
			subtotal:   d("0"),
			wantAmount: d("0"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.coupon, tt.subtotal)

			assert.True(t, tt.wantAmount.Equal(got.Amount),
				"expected amount %s, got %s", tt.wantAmount, got.Amount)
			assert.Equal(t, tt.coupon.Code, got.Code)
			assert.Equal(t, tt.coupon.CalcType, got.Type)
			assert.True(t, tt.coupon.Amount.Equal(got.RawValue))
		})
	}
}

func TestIsValidationError_PersistenceErrorExcluded(t *testing.T) {
	assert.False(t, IsValidationError(assert.AnError))
}
