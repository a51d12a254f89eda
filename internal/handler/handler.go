// Package handler exposes the storefront services over HTTP. Handlers stay
// thin: decode, call the service, encode. All business rules live in the
// domain packages.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/xenking/storefront-api/internal/domain/auth"
	"github.com/xenking/storefront-api/internal/domain/checkout"
	"github.com/xenking/storefront-api/internal/domain/dashboard"
	"github.com/xenking/storefront-api/internal/domain/delivery"
	"github.com/xenking/storefront-api/internal/domain/order"
	"github.com/xenking/storefront-api/internal/domain/product"
)

// Handler wires the domain services to HTTP routes.
type Handler struct {
	products  product.Repository
	delivery  delivery.Repository
	checkout  *checkout.Service
	orders    *order.Service
	dashboard *dashboard.Service
	security  *Security
}

// NewHandler creates a Handler over the given services.
func NewHandler(
	products product.Repository,
	deliveries delivery.Repository,
	checkoutSvc *checkout.Service,
	orders *order.Service,
	dashboardSvc *dashboard.Service,
	apikeys auth.Repository,
	pepper []byte,
) *Handler {
	return &Handler{
		products:  products,
		delivery:  deliveries,
		checkout:  checkoutSvc,
		orders:    orders,
		dashboard: dashboardSvc,
		security:  NewSecurity(apikeys, pepper),
	}
}

// Routes registers all API routes on the router. Admin routes require a
// valid API key.
func (h *Handler) Routes(r *mux.Router) {
	api := r.PathPrefix("/api").Subrouter()

	// Public storefront surface.
	api.HandleFunc("/products", h.ListProducts).Methods(http.MethodGet)
	api.HandleFunc("/products/{id}", h.GetProduct).Methods(http.MethodGet)
	api.HandleFunc("/checkout/delivery-options", h.ListDeliveryOptions).Methods(http.MethodGet)
	api.HandleFunc("/checkout/quote", h.Quote).Methods(http.MethodPost)
	api.HandleFunc("/checkout/coupon", h.ApplyCoupon).Methods(http.MethodPost)
	api.HandleFunc("/orders", h.PlaceOrder).Methods(http.MethodPost)
	api.HandleFunc("/orders/{id}/confirmation", h.OrderConfirmation).Methods(http.MethodGet)

	// Admin surface.
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(h.security.Middleware)
	admin.HandleFunc("/orders", h.ListOrders).Methods(http.MethodGet)
	admin.HandleFunc("/orders/{id}", h.GetOrder).Methods(http.MethodGet)
	admin.HandleFunc("/orders/{id}/status", h.UpdateOrderStatus).Methods(http.MethodPatch)
	admin.HandleFunc("/orders/{id}/notes", h.UpdateOrderNotes).Methods(http.MethodPatch)
	admin.HandleFunc("/orders/{id}", h.DeleteOrder).Methods(http.MethodDelete)
	admin.HandleFunc("/dashboard/stats", h.DashboardStats).Methods(http.MethodGet)
	admin.HandleFunc("/dashboard/sales", h.DashboardSales).Methods(http.MethodGet)
}

// envelope is the uniform response wrapper.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Error: msg})
}

func writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("request failed",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
