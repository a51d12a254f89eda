package order

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/storefront-api/internal/domain/checkout"
	"github.com/xenking/storefront-api/internal/domain/inventory"
	"github.com/xenking/storefront-api/internal/domain/product"
)

// ProductNotFoundError indicates a requested product does not exist.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return "product " + e.ProductID + " not found"
}

// Pricer computes order totals for a cart. Implemented by checkout.Service.
type Pricer interface {
	CalculateOrderTotals(ctx context.Context, items []checkout.CartItem, deliveryID, couponCode string) (*checkout.Totals, error)
}

// Config holds display configuration applied to order output.
type Config struct {
	// Currency is the ISO code stored on new orders.
	Currency string
	// CurrencySymbol is attached to summaries for uniform money display.
	CurrencySymbol string
}

// Service encapsulates order placement, listing, and the status-driven
// inventory reconciliation.
type Service struct {
	cfg      Config
	orders   Repository
	stock    inventory.Repository
	products product.Repository
	pricing  Pricer
}

// NewService creates an order Service with the required dependencies.
func NewService(
	cfg Config,
	orders Repository,
	stock inventory.Repository,
	products product.Repository,
	pricing Pricer,
) *Service {
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	if cfg.CurrencySymbol == "" {
		cfg.CurrencySymbol = "$"
	}
	return &Service{
		cfg:      cfg,
		orders:   orders,
		stock:    stock,
		products: products,
		pricing:  pricing,
	}
}

// PlaceRequest holds the input for placing an order.
type PlaceRequest struct {
	Items           []checkout.CartItem
	DeliveryID      string
	CouponCode      string
	ShippingAddress map[string]any
	BillingAddress  map[string]any
	Notes           string
	CustomerID      string
}

// Place validates the cart, prices it, snapshots item and charge rows, and
// persists the order in a single transaction.
func (s *Service) Place(ctx context.Context, req PlaceRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	ids := make([]string, 0, len(req.Items))
	variantIDs := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: item.ProductID}
		}
		ids = append(ids, item.ProductID)
		if item.VariantID != "" {
			variantIDs = append(variantIDs, item.VariantID)
		}
	}

	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	productMap := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		productMap[p.ID] = p
	}

	variantMap := make(map[string]product.Variant)
	if len(variantIDs) > 0 {
		variants, err := s.products.GetVariantsByIDs(ctx, variantIDs)
		if err != nil {
			return nil, errors.Wrap(err, "get variants")
		}
		for _, v := range variants {
			variantMap[v.ID] = v
		}
	}

	totals, err := s.pricing.CalculateOrderTotals(ctx, req.Items, req.DeliveryID, req.CouponCode)
	if err != nil {
		return nil, errors.Wrap(err, "calculate totals")
	}

	o := &Order{
		ID:              uuid.New().String(),
		Status:          StatusPending,
		SubtotalAmount:  totals.Subtotal.Round(2),
		TotalAmount:     totals.Total,
		Currency:        s.cfg.Currency,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		Notes:           req.Notes,
		CustomerID:      req.CustomerID,
	}

	for _, item := range req.Items {
		p, ok := productMap[item.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: item.ProductID}
		}
		snap := Item{
			ID:          uuid.New().String(),
			OrderID:     o.ID,
			ProductID:   item.ProductID,
			VariantID:   item.VariantID,
			ProductName: p.Name,
			SKU:         p.SKU,
			Quantity:    item.Quantity,
			UnitPrice:   item.Price,
			LineTotal:   item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2),
		}
		if v, ok := variantMap[item.VariantID]; ok {
			snap.VariantTitle = v.Title
			if v.SKU != "" {
				snap.SKU = v.SKU
			}
		}
		o.Items = append(o.Items, snap)
	}

	o.Charges = buildChargeSnapshots(o.ID, totals)

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	return o, nil
}

// buildChargeSnapshots converts a quote breakdown into immutable charge
// rows: the coupon discount, the delivery fee, then every applied rule.
func buildChargeSnapshots(orderID string, totals *checkout.Totals) []Charge {
	var charges []Charge

	if d := totals.Discount; d != nil {
		charges = append(charges, Charge{
			ID:            uuid.New().String(),
			OrderID:       orderID,
			Type:          "discount",
			CalcType:      string(d.Type),
			BaseAmount:    d.RawValue,
			AppliedAmount: d.Amount,
			Metadata:      map[string]any{"label": "Coupon " + d.Code, "coupon_code": d.Code},
		})
	}

	if del := totals.Delivery; del != nil {
		charges = append(charges, Charge{
			ID:            uuid.New().String(),
			OrderID:       orderID,
			Type:          "charge",
			CalcType:      "amount",
			BaseAmount:    del.Amount,
			AppliedAmount: del.Amount,
			DeliveryID:    del.ID,
			Metadata:      map[string]any{"label": del.Label},
		})
	}

	for _, c := range totals.Charges {
		charges = append(charges, Charge{
			ID:            uuid.New().String(),
			OrderID:       orderID,
			Type:          string(c.Type),
			CalcType:      string(c.CalcType),
			BaseAmount:    c.RawValue,
			AppliedAmount: c.Amount,
			Metadata:      map[string]any{"label": c.Label},
		})
	}

	return charges
}

// UpdateStatus transitions an order to next and reconciles inventory.
//
// The status write lands first, guarded by a compare-and-swap on the
// previous status. Inventory adjustments follow sequentially; if any of
// them fails, every already-applied adjustment is reverted to its recorded
// prior quantity, then the status is rolled back, and the original error
// is returned. Setting the current status again is an idempotent no-op.
func (s *Service) UpdateStatus(ctx context.Context, id string, next Status) (*Order, error) {
	prev, err := s.orders.GetStatus(ctx, id)
	if err != nil {
		return nil, err
	}
	if prev == next {
		return s.orders.Get(ctx, id)
	}

	if err := s.orders.UpdateStatusCAS(ctx, id, prev, next); err != nil {
		return nil, err
	}

	direction := 0
	switch {
	case next.HoldsInventory() && !prev.HoldsInventory():
		direction = -1 // stock consumed
	case prev.HoldsInventory() && !next.HoldsInventory():
		direction = +1 // stock restored
	}

	if direction != 0 {
		if err := s.adjustInventoryForOrder(ctx, id, direction); err != nil {
			if setErr := s.orders.SetStatus(ctx, id, prev); setErr != nil {
				zctx.From(ctx).Error("status rollback failed",
					zap.String("order_id", id),
					zap.String("status", string(prev)),
					zap.Error(setErr),
				)
			}
			return nil, errors.Wrap(err, "adjust inventory")
		}
	}

	return s.orders.Get(ctx, id)
}

// adjustInventoryForOrder applies direction x quantity to the stock record
// of every (product, variant) pair in the order. Multiple lines for the
// same pair are summed before adjustment. Pairs without a stock record are
// skipped: the item may simply not track inventory.
//
// On failure, adjustments already applied in this call are reverted to
// their recorded prior quantities before the error is returned.
func (s *Service) adjustInventoryForOrder(ctx context.Context, orderID string, direction int) error {
	items, err := s.orders.ListItemQuantities(ctx, orderID)
	if err != nil {
		return errors.Wrap(err, "list order items")
	}

	aggregated := aggregateQuantities(items)
	if len(aggregated) == 0 {
		return nil
	}

	lg := zctx.From(ctx)

	var applied []*inventory.Adjustment
	for _, entry := range aggregated {
		adj, err := s.stock.Adjust(ctx, entry.ProductID, entry.VariantID, direction*entry.Quantity)
		if err != nil {
			if errors.Is(err, inventory.ErrNotFound) {
				lg.Warn("inventory record missing, skipping",
					zap.String("product_id", entry.ProductID),
					zap.String("variant_id", entry.VariantID),
				)
				continue
			}

			for i := len(applied) - 1; i >= 0; i-- {
				a := applied[i]
				if revertErr := s.stock.SetQuantity(ctx, a.RecordID, a.Previous); revertErr != nil {
					lg.Error("inventory rollback failed",
						zap.String("record_id", a.RecordID),
						zap.Int("quantity", a.Previous),
						zap.Error(revertErr),
					)
				}
			}
			return err
		}
		applied = append(applied, adj)
	}

	return nil
}

// aggregateQuantities sums line quantities per (product, variant) pair,
// preserving first-seen order so adjustments run deterministically.
func aggregateQuantities(items []ItemQuantity) []ItemQuantity {
	index := make(map[string]int, len(items))
	var out []ItemQuantity
	for _, item := range items {
		if item.ProductID == "" || item.Quantity == 0 {
			continue
		}
		key := item.ProductID + "\x00" + item.VariantID
		if i, ok := index[key]; ok {
			out[i].Quantity += item.Quantity
			continue
		}
		index[key] = len(out)
		out = append(out, item)
	}
	return out
}

// UpdateNotes overwrites the order's notes and returns the updated order.
func (s *Service) UpdateNotes(ctx context.Context, id, notes string) (*Order, error) {
	if err := s.orders.UpdateNotes(ctx, id, notes); err != nil {
		return nil, err
	}
	return s.orders.Get(ctx, id)
}

// Remove deletes an order and its dependent rows.
func (s *Service) Remove(ctx context.Context, id string) error {
	return s.orders.Delete(ctx, id)
}

// containsFold reports whether s contains substr, case-insensitively.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}
