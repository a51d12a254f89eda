package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/gorilla/mux"

	"github.com/xenking/storefront-api/internal/domain/order"
)

type placeOrderRequest struct {
	Items           []cartItemRequest `json:"items"`
	DeliveryID      string            `json:"deliveryId,omitempty"`
	CouponCode      string            `json:"couponCode,omitempty"`
	ShippingAddress map[string]any    `json:"shippingAddress,omitempty"`
	BillingAddress  map[string]any    `json:"billingAddress,omitempty"`
	Notes           string            `json:"notes,omitempty"`
	CustomerID      string            `json:"customerId,omitempty"`
}

// PlaceOrder creates a new order from a cart.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.orders.Place(r.Context(), order.PlaceRequest{
		Items:           toCartItems(req.Items),
		DeliveryID:      req.DeliveryID,
		CouponCode:      req.CouponCode,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		Notes:           req.Notes,
		CustomerID:      req.CustomerID,
	})
	if err != nil {
		var (
			iqErr  *order.InvalidQuantityError
			pnfErr *order.ProductNotFoundError
		)
		switch {
		case errors.Is(err, order.ErrEmptyItems):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.As(err, &iqErr):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.As(err, &pnfErr):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			writeInternalError(w, r, err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, orderResponse(o))
}

// OrderConfirmation returns the public confirmation view of an order. It is
// reachable without authentication; the order id acts as the capability.
func (h *Handler) OrderConfirmation(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.GetDetail(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detailResponse(o))
}

// ListOrders returns the admin order list with status counts.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := h.orders.ListSummaries(r.Context(), order.Filters{
		Status: order.Status(q.Get("status")),
		Search: q.Get("q"),
	})
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	summaries := make([]map[string]any, 0, len(res.Orders))
	for i := range res.Orders {
		summaries = append(summaries, summaryResponse(&res.Orders[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"orders": summaries,
		"counts": res.Counts,
	})
}

// GetOrder returns the admin detail view of an order.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.GetDetail(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detailResponse(o))
}

// UpdateOrderStatus transitions an order's status, reconciling inventory.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status, err := order.ParseStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	o, err := h.orders.UpdateStatus(r.Context(), mux.Vars(r)["id"], status)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrNotFound):
			writeError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, order.ErrStatusConflict):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeInternalError(w, r, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, orderResponse(o))
}

// UpdateOrderNotes overwrites an order's admin notes.
func (h *Handler) UpdateOrderNotes(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Notes string `json:"notes"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.orders.UpdateNotes(r.Context(), mux.Vars(r)["id"], req.Notes)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orderResponse(o))
}

// DeleteOrder removes an order entirely.
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.Remove(r.Context(), mux.Vars(r)["id"]); err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func orderResponse(o *order.Order) map[string]any {
	items := make([]map[string]any, 0, len(o.Items))
	for i := range o.Items {
		item := &o.Items[i]
		items = append(items, map[string]any{
			"id":           item.ID,
			"productId":    item.ProductID,
			"variantId":    item.VariantID,
			"productName":  item.ProductName,
			"variantTitle": item.VariantTitle,
			"sku":          item.SKU,
			"quantity":     item.Quantity,
			"unitPrice":    item.UnitPrice.InexactFloat64(),
			"lineTotal":    item.LineTotal.InexactFloat64(),
		})
	}

	charges := make([]map[string]any, 0, len(o.Charges))
	for i := range o.Charges {
		c := &o.Charges[i]
		charges = append(charges, map[string]any{
			"id":            c.ID,
			"type":          c.Type,
			"calcType":      c.CalcType,
			"label":         c.Label(),
			"baseAmount":    c.BaseAmount.InexactFloat64(),
			"appliedAmount": c.AppliedAmount.InexactFloat64(),
		})
	}

	return map[string]any{
		"id":        o.ID,
		"status":    string(o.Status),
		"subtotal":  o.SubtotalAmount.InexactFloat64(),
		"total":     o.TotalAmount.InexactFloat64(),
		"currency":  o.Currency,
		"notes":     o.Notes,
		"createdAt": o.CreatedAt,
		"items":     items,
		"charges":   charges,
	}
}

func summaryResponse(s *order.Summary) map[string]any {
	return map[string]any{
		"id":             s.ID,
		"createdAt":      s.CreatedAt,
		"status":         string(s.Status),
		"subtotal":       s.SubtotalAmount.InexactFloat64(),
		"discount":       s.DiscountAmount.InexactFloat64(),
		"shipping":       s.ShippingAmount.InexactFloat64(),
		"total":          s.TotalAmount.InexactFloat64(),
		"currency":       s.Currency,
		"currencySymbol": s.CurrencySymbol,
		"notes":          s.Notes,
		"customerName":   s.CustomerName,
		"customerEmail":  s.CustomerEmail,
		"customerPhone":  s.CustomerPhone,
		"itemsCount":     s.ItemsCount,
	}
}

func detailResponse(d *order.Detail) map[string]any {
	out := summaryResponse(&d.Summary)

	items := make([]map[string]any, 0, len(d.Items))
	for i := range d.Items {
		item := &d.Items[i]
		items = append(items, map[string]any{
			"id":           item.ID,
			"productId":    item.ProductID,
			"variantId":    item.VariantID,
			"productName":  item.ProductName,
			"variantTitle": item.VariantTitle,
			"sku":          item.SKU,
			"quantity":     item.Quantity,
			"unitPrice":    item.UnitPrice.InexactFloat64(),
			"lineTotal":    item.LineTotal.InexactFloat64(),
		})
	}
	out["items"] = items

	charges := make([]map[string]any, 0, len(d.Charges))
	for _, c := range d.Charges {
		charges = append(charges, map[string]any{
			"id":            c.ID,
			"type":          c.Type,
			"calcType":      c.CalcType,
			"label":         c.Label,
			"baseAmount":    c.BaseAmount.InexactFloat64(),
			"appliedAmount": c.AppliedAmount.InexactFloat64(),
		})
	}
	out["charges"] = charges

	out["shippingAddress"] = d.ShippingAddress
	out["billingAddress"] = d.BillingAddress
	return out
}
