package checkout

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/storefront-api/internal/domain/charge"
	"github.com/xenking/storefront-api/internal/domain/coupon"
	"github.com/xenking/storefront-api/internal/domain/delivery"
)

// Service is the pricing engine. It is stateless between invocations; all
// configuration is read from the injected repositories per call.
type Service struct {
	coupons  coupon.Repository
	delivery delivery.Repository
	charges  charge.Repository
	now      func() time.Time
}

// NewService creates a pricing engine with the required configuration
// sources.
func NewService(coupons coupon.Repository, deliveries delivery.Repository, charges charge.Repository) *Service {
	return &Service{
		coupons:  coupons,
		delivery: deliveries,
		charges:  charges,
		now:      time.Now,
	}
}

// ValidateCoupon is the strict coupon entry point: it fails with a
// descriptive error on any violation. Used when a customer explicitly
// applies a code and needs feedback.
func (s *Service) ValidateCoupon(ctx context.Context, code string, subtotal decimal.Decimal) (*coupon.Discount, error) {
	c, err := s.coupons.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, coupon.ErrNotFound) {
			return nil, coupon.ErrNotFound
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}

	if err := coupon.Validate(c, subtotal, s.now()); err != nil {
		return nil, err
	}

	d := coupon.Compute(c, subtotal)
	return &d, nil
}

// CalculateOrderTotals prices a cart. Evaluation order is fixed: subtotal,
// coupon discount, delivery fee, charge rules, final floor at zero.
//
// The coupon path here is tolerant: a code that fails validation is
// ignored (the quote proceeds without a discount) rather than surfaced as
// an error. Persistence failures still propagate. A missing or inactive
// delivery id contributes zero.
func (s *Service) CalculateOrderTotals(ctx context.Context, items []CartItem, deliveryID, couponCode string) (*Totals, error) {
	subtotal := Subtotal(items)
	running := subtotal

	totals := &Totals{Subtotal: subtotal}

	if couponCode != "" {
		d, err := s.ValidateCoupon(ctx, couponCode, subtotal)
		switch {
		case err == nil:
			totals.Discount = d
			running = running.Sub(d.Amount)
		case coupon.IsValidationError(err):
			zctx.From(ctx).Warn("coupon rejected during quote",
				zap.String("code", couponCode),
				zap.Error(err),
			)
		default:
			return nil, errors.Wrap(err, "validate coupon")
		}
	}

	if deliveryID != "" {
		opt, err := s.delivery.GetActive(ctx, deliveryID)
		switch {
		case err == nil:
			totals.Delivery = &AppliedDelivery{
				ID:     opt.ID,
				Label:  opt.Label,
				Amount: opt.Amount,
			}
			running = running.Add(opt.Amount)
		case errors.Is(err, delivery.ErrNotFound):
			// Silent zero-amount fallback.
		default:
			return nil, errors.Wrap(err, "get delivery option")
		}
	}

	rules, err := s.charges.ListActive(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list charge rules")
	}
	for i := range rules {
		rule := &rules[i]
		// Rule amounts are computed against the original subtotal, not the
		// discounted base.
		amount := rule.AppliedAmount(subtotal)
		if rule.Type == charge.TypeDiscount {
			running = running.Sub(amount)
		} else {
			running = running.Add(amount)
		}
		totals.Charges = append(totals.Charges, AppliedCharge{
			ID:       rule.ID,
			Label:    rule.Label,
			Amount:   amount,
			Type:     rule.Type,
			CalcType: rule.CalcType,
			RawValue: rule.Amount,
		})
	}

	if running.IsNegative() {
		running = decimal.Zero
	}
	totals.Total = running.Round(2)

	return totals, nil
}
