package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront-api/internal/domain/charge"
	"github.com/xenking/storefront-api/internal/domain/coupon"
	"github.com/xenking/storefront-api/internal/domain/delivery"
)

// --- Mock implementations ---

type mockCouponRepo struct {
	byCode map[string]*coupon.Coupon
	err    error
}

func (m *mockCouponRepo) FindByCode(_ context.Context, code string) (*coupon.Coupon, error) {
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.byCode[code]
	if !ok {
		return nil, coupon.ErrNotFound
	}
	return c, nil
}

type mockDeliveryRepo struct {
	byID map[string]*delivery.Option
	err  error
}

func (m *mockDeliveryRepo) ListActive(_ context.Context) ([]delivery.Option, error) {
	out := make([]delivery.Option, 0, len(m.byID))
	for _, o := range m.byID {
		out = append(out, *o)
	}
	return out, m.err
}

func (m *mockDeliveryRepo) GetActive(_ context.Context, id string) (*delivery.Option, error) {
	if m.err != nil {
		return nil, m.err
	}
	o, ok := m.byID[id]
	if !ok {
		return nil, delivery.ErrNotFound
	}
	return o, nil
}

type mockChargeRepo struct {
	rules []charge.Rule
	err   error
}

func (m *mockChargeRepo) ListActive(_ context.Context) ([]charge.Rule, error) {
	return m.rules, m.err
}

// --- Helpers ---

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func newService(coupons *mockCouponRepo, deliveries *mockDeliveryRepo, charges *mockChargeRepo) *Service {
	if coupons == nil {
		coupons = &mockCouponRepo{}
	}
	if deliveries == nil {
		deliveries = &mockDeliveryRepo{}
	}
	if charges == nil {
		charges = &mockChargeRepo{}
	}
	svc := NewService(coupons, deliveries, charges)
	svc.now = func() time.Time {
		return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func cart(lines ...CartItem) []CartItem { return lines }

// --- Tests ---

func TestCalculateOrderTotals_EmptyCart(t *testing.T) {
	svc := newService(nil, nil, nil)

	totals, err := svc.CalculateOrderTotals(context.Background(), nil, "", "")

	require.NoError(t, err)
	assert.True(t, decimal.Zero.Equal(totals.Subtotal))
	assert.True(t, decimal.Zero.Equal(totals.Total))
	assert.Nil(t, totals.Discount)
	assert.Nil(t, totals.Delivery)
	assert.Empty(t, totals.Charges)
}

func TestCalculateOrderTotals_SubtotalOnly(t *testing.T) {
	svc := newService(nil, nil, nil)

	totals, err := svc.CalculateOrderTotals(context.Background(), cart(
		CartItem{ProductID: "p1", Quantity: 2, Price: d("10.00")},
		CartItem{ProductID: "p2", Quantity: 1, Price: d("20.00")},
	), "", "")

	require.NoError(t, err)
	assert.True(t, d("40.00").Equal(totals.Subtotal))
	assert.True(t, d("40.00").Equal(totals.Total))
}

func TestCalculateOrderTotals_WithCoupon(t *testing.T) {
	coupons := &mockCouponRepo{byCode: map[string]*coupon.Coupon{
		"SAVE10": {
			ID:       "c1",
			Code:     "SAVE10",
			CalcType: coupon.CalcPercent,
			Amount:   d("10"),
			IsActive: true,
		},
	}}
	svc := newService(coupons, nil, nil)

	totals, err := svc.CalculateOrderTotals(context.Background(), cart(
		CartItem{ProductID: "p1", Quantity: 1, Price: d("100.00")},
	), "", "SAVE10")

	require.NoError(t, err)
	require.NotNil(t, totals.Discount)
	assert.True(t, d("10.00").Equal(totals.Discount.Amount))
	assert.True(t, d("90.00").Equal(totals.Total))
}

func TestCalculateOrderTotals_DiscountClampedToSubtotal(t *testing.T) {
	coupons := &mockCouponRepo{byCode: map[string]*coupon.Coupon{
		"MEGA": {
			ID:       "c1",
			Code:     "MEGA",
			CalcType: coupon.CalcPercent,
			Amount:   d("1000"),
			IsActive: true,
		},
	}}
	svc := newService(coupons, nil, nil)

	totals, err := svc.CalculateOrderTotals(context.Background(), cart(
		CartItem{ProductID: "p1", Quantity: 1, Price: d("50.00")},
	), "", "MEGA")

	require.NoError(t, err)
	require.NotNil(t, totals.Discount)
	assert.True(t, d("50.00").Equal(totals.Discount.Amount))
	assert.True(t, decimal.Zero.Equal(totals.Total))
}

func TestCalculateOrderTotals_ExpiredCouponIgnored(t *testing.T) {
	expired := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	coupons := &mockCouponRepo{byCode: map[string]*coupon.Coupon{
		"OLD": {
			ID:       "c1",
			Code:     "OLD",
			CalcType: coupon.CalcPercent,
			Amount:   d("50"),
			ValidTo:  &expired,
			IsActive: true,
		},
	}}
	svc := newService(coupons, nil, nil)

	totals, err := svc.CalculateOrderTotals(context.Background(), cart(
		CartItem{ProductID: "p1", Quantity: 1, Price: d("100.00")},
	), "", "OLD")

	require.NoError(t, err)
	assert.Nil(t, totals.Discount)
	assert.True(t, d("100.00").Equal(totals.Total))
}

func TestCalculateOrderTotals_UnknownCouponIgnored(t *testing.T) {
	svc := newService(nil, nil, nil)

	totals, err := svc.CalculateOrderTotals(context.Background(), cart(
		CartItem{ProductID: "p1", Quantity: 1, Price: d("100.00")},
	), "", "BOGUS")

	require.NoError(t, err)
	assert.Nil(t, totals.Discount)
	assert.True(t, d("100.00").Equal(totals.Total))
}

func TestCalculateOrderTotals_CouponStoreErrorPropagates(t *testing.T) {
	coupons := &mockCouponRepo{err: errors.New("connection refused")}
	svc := newService(coupons, nil, nil)

	_, err := svc.CalculateOrderTotals(context.Background(), cart(
		CartItem{ProductID: "p1", Quantity: 1, Price: d("100.00")},
	), "", "ANY")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "validate coupon")
}

func TestCalculateOrderTotals_WithDelivery(t *testing.T) {
	deliveries := &mockDeliveryRepo{byID: map[string]*delivery.Option{
		"d1": {ID: "d1", Label: "Express", Amount: d("7.50"), IsActive: true},
	}}
	svc := newService(nil, deliveries, nil)

	totals, err := svc.CalculateOrderTotals(context.Background(), cart(
		CartItem{ProductID: "p1", Quantity: 1, Price: d("10.00")},
	), "d1", "")

	require.NoError(t, err)
	require.NotNil(t, totals.Delivery)
	assert.Equal(t, "Express", totals.Delivery.Label)
	assert.True(t, d("17.50").Equal(totals.Total))
}

func TestCalculateOrderTotals_MissingDeliveryContributesZero(t *testing.T) {
	svc := newService(nil, nil, nil)

	totals, err := svc.CalculateOrderTotals(context.Background(), cart(
		CartItem{ProductID: "p1", Quantity: 1, Price: d("10.00")},
	), "ghost", "")

	require.NoError(t, err)
	assert.Nil(t, totals.Delivery)
	assert.True(t, d("10.00").Equal(totals.Total))
}

func TestCalculateOrderTotals_ChargePercentUsesOriginalSubtotal(t *testing.T) {
	coupons := &mockCouponRepo{byCode: map[string]*coupon.Coupon{
		"OFF20": {
			ID:       "c1",
			Code:     "OFF20",
			CalcType: coupon.CalcAmount,
			Amount:   d("20"),
			IsActive: true,
		},
	}}
	charges := &mockChargeRepo{rules: []charge.Rule{
		{ID: "r1", Label: "VAT", Type: charge.TypeCharge, CalcType: charge.CalcPercent, Amount: d("10"), IsActive: true},
	}}
	svc := newService(coupons, nil, charges)

	totals, err := svc.CalculateOrderTotals(context.Background(), cart(
		CartItem{ProductID: "p1", Quantity: 1, Price: d("100.00")},
	), "", "OFF20")

	require.NoError(t, err)
	require.Len(t, totals.Charges, 1)
	// 10% of the original 100 subtotal, not of the 80 post-discount base.
	assert.True(t, d("10.00").Equal(totals.Charges[0].Amount))
	assert.True(t, d("90.00").Equal(totals.Total))
}

func TestCalculateOrderTotals_DiscountRuleReducesTotal(t *testing.T) {
	charges := &mockChargeRepo{rules: []charge.Rule{
		{ID: "r1", Label: "Promo", Type: charge.TypeDiscount, CalcType: charge.CalcAmount, Amount: d("3"), IsActive: true},
		{ID: "r2", Label: "Fee", Type: charge.TypeCharge, CalcType: charge.CalcAmount, Amount: d("1"), IsActive: true},
	}}
	svc := newService(nil, nil, charges)

	totals, err := svc.CalculateOrderTotals(context.Background(), cart(
		CartItem{ProductID: "p1", Quantity: 1, Price: d("10.00")},
	), "", "")

	require.NoError(t, err)
	require.Len(t, totals.Charges, 2)
	assert.True(t, d("8.00").Equal(totals.Total))
	assert.Equal(t, charge.TypeDiscount, totals.Charges[0].Type)
	assert.Equal(t, charge.TypeCharge, totals.Charges[1].Type)
}

func TestCalculateOrderTotals_TotalFlooredAtZero(t *testing.T) {
	coupons := &mockCouponRepo{byCode: map[string]*coupon.Coupon{
		"FREE": {
			ID:       "c1",
			Code:     "FREE",
			CalcType: coupon.CalcPercent,
			Amount:   d("100"),
			IsActive: true,
		},
	}}
	charges := &mockChargeRepo{rules: []charge.Rule{
		{ID: "r1", Label: "Promo", Type: charge.TypeDiscount, CalcType: charge.CalcAmount, Amount: d("5"), IsActive: true},
	}}
	svc := newService(coupons, nil, charges)

	totals, err := svc.CalculateOrderTotals(context.Background(), cart(
		CartItem{ProductID: "p1", Quantity: 1, Price: d("10.00")},
	), "", "FREE")

	require.NoError(t, err)
	assert.True(t, decimal.Zero.Equal(totals.Total), "total must clamp at zero, got %s", totals.Total)
}

func TestValidateCoupon_Strict(t *testing.T) {
	expired := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	coupons := &mockCouponRepo{byCode: map[string]*coupon.Coupon{
		"OLD": {
			ID:       "c1",
			Code:     "OLD",
			CalcType: coupon.CalcPercent,
			Amount:   d("10"),
			ValidTo:  &expired,
			IsActive: true,
		},
		"MIN50": {
			ID:             "c2",
			Code:           "MIN50",
			CalcType:       coupon.CalcAmount,
			Amount:         d("5"),
			MinOrderAmount: d("50"),
			IsActive:       true,
		},
	}}
	svc := newService(coupons, nil, nil)

	t.Run("expired coupon fails", func(t *testing.T) {
		_, err := svc.ValidateCoupon(context.Background(), "OLD", d("100"))
		require.ErrorIs(t, err, coupon.ErrExpired)
	})

	t.Run("unknown coupon fails", func(t *testing.T) {
		_, err := svc.ValidateCoupon(context.Background(), "NOPE", d("100"))
		require.ErrorIs(t, err, coupon.ErrNotFound)
	})

	t.Run("below minimum order amount fails", func(t *testing.T) {
		_, err := svc.ValidateCoupon(context.Background(), "MIN50", d("30"))
		var minErr *coupon.MinOrderAmountError
		require.ErrorAs(t, err, &minErr)
	})

	t.Run("valid coupon succeeds", func(t *testing.T) {
		got, err := svc.ValidateCoupon(context.Background(), "MIN50", d("60"))
		require.NoError(t, err)
		assert.True(t, d("5").Equal(got.Amount))
	})
}
