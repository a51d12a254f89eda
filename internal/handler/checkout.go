package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-api/internal/domain/checkout"
	"github.com/xenking/storefront-api/internal/domain/coupon"
	"github.com/xenking/storefront-api/internal/domain/product"
)

type cartItemRequest struct {
	ProductID string  `json:"productId"`
	VariantID string  `json:"variantId,omitempty"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type quoteRequest struct {
	Items      []cartItemRequest `json:"items"`
	DeliveryID string            `json:"deliveryId,omitempty"`
	CouponCode string            `json:"couponCode,omitempty"`
}

type deliveryResponse struct {
	ID     string  `json:"id"`
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

type discountResponse struct {
	Code   string  `json:"code"`
	Amount float64 `json:"amount"`
	Type   string  `json:"type"`
}

type appliedChargeResponse struct {
	ID     string  `json:"id"`
	Label  string  `json:"label"`
	Type   string  `json:"type"`
	Amount float64 `json:"amount"`
}

type quoteResponse struct {
	Subtotal float64                 `json:"subtotal"`
	Delivery *deliveryResponse       `json:"delivery,omitempty"`
	Discount *discountResponse       `json:"discount,omitempty"`
	Charges  []appliedChargeResponse `json:"charges"`
	Total    float64                 `json:"total"`
}

// ListProducts returns the active catalog.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	out := make([]map[string]any, 0, len(products))
	for _, p := range products {
		out = append(out, productResponse(&p))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetProduct returns a single catalog item.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, productResponse(p))
}

// ListDeliveryOptions returns the active delivery options for checkout.
func (h *Handler) ListDeliveryOptions(w http.ResponseWriter, r *http.Request) {
	options, err := h.delivery.ListActive(r.Context())
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	out := make([]map[string]any, 0, len(options))
	for _, opt := range options {
		out = append(out, map[string]any{
			"id":        opt.ID,
			"label":     opt.Label,
			"amount":    opt.Amount.InexactFloat64(),
			"isDefault": opt.IsDefault,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// Quote prices a cart without placing an order.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	totals, err := h.checkout.CalculateOrderTotals(r.Context(), toCartItems(req.Items), req.DeliveryID, req.CouponCode)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuoteResponse(totals))
}

// ApplyCoupon strictly validates a coupon against a cart subtotal and
// returns the computed discount, or a descriptive rejection.
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code  string            `json:"code"`
		Items []cartItemRequest `json:"items"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "coupon code required")
		return
	}

	subtotal := checkout.Subtotal(toCartItems(req.Items))
	d, err := h.checkout.ValidateCoupon(r.Context(), req.Code, subtotal)
	if err != nil {
		if coupon.IsValidationError(err) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeInternalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, discountResponse{
		Code:   d.Code,
		Amount: d.Amount.InexactFloat64(),
		Type:   string(d.Type),
	})
}

func toCartItems(items []cartItemRequest) []checkout.CartItem {
	out := make([]checkout.CartItem, 0, len(items))
	for _, item := range items {
		out = append(out, checkout.CartItem{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			Price:     decimal.NewFromFloat(item.Price),
		})
	}
	return out
}

func toQuoteResponse(totals *checkout.Totals) quoteResponse {
	resp := quoteResponse{
		Subtotal: totals.Subtotal.InexactFloat64(),
		Total:    totals.Total.InexactFloat64(),
		Charges:  make([]appliedChargeResponse, 0, len(totals.Charges)),
	}
	if totals.Delivery != nil {
		resp.Delivery = &deliveryResponse{
			ID:     totals.Delivery.ID,
			Label:  totals.Delivery.Label,
			Amount: totals.Delivery.Amount.InexactFloat64(),
		}
	}
	if totals.Discount != nil {
		resp.Discount = &discountResponse{
			Code:   totals.Discount.Code,
			Amount: totals.Discount.Amount.InexactFloat64(),
			Type:   string(totals.Discount.Type),
		}
	}
	for _, c := range totals.Charges {
		resp.Charges = append(resp.Charges, appliedChargeResponse{
			ID:     c.ID,
			Label:  c.Label,
			Type:   string(c.Type),
			Amount: c.Amount.InexactFloat64(),
		})
	}
	return resp
}

func productResponse(p *product.Product) map[string]any {
	return map[string]any{
		"id":       p.ID,
		"name":     p.Name,
		"sku":      p.SKU,
		"price":    p.Price.InexactFloat64(),
		"category": p.CategoryID,
	}
}
