package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-faster/errors"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront-api/internal/domain/auth"
	"github.com/xenking/storefront-api/internal/domain/charge"
	"github.com/xenking/storefront-api/internal/domain/checkout"
	"github.com/xenking/storefront-api/internal/domain/coupon"
	"github.com/xenking/storefront-api/internal/domain/dashboard"
	"github.com/xenking/storefront-api/internal/domain/delivery"
	"github.com/xenking/storefront-api/internal/domain/inventory"
	"github.com/xenking/storefront-api/internal/domain/order"
	"github.com/xenking/storefront-api/internal/domain/product"
)

// --- Mock implementations ---

type mockProductRepo struct {
	products []product.Product
	variants []product.Variant
	listErr  error
}

func (m *mockProductRepo) List(_ context.Context) ([]product.Product, error) {
	return m.products, m.listErr
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	for i := range m.products {
		if m.products[i].ID == id {
			return &m.products[i], nil
		}
	}
	return nil, product.ErrNotFound
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	var out []product.Product
	for _, id := range ids {
		for i := range m.products {
			if m.products[i].ID == id {
				out = append(out, m.products[i])
			}
		}
	}
	return out, nil
}

func (m *mockProductRepo) GetVariantsByIDs(_ context.Context, _ []string) ([]product.Variant, error) {
	return m.variants, nil
}

type mockCouponRepo struct {
	coupons map[string]*coupon.Coupon
}

func (m *mockCouponRepo) FindByCode(_ context.Context, code string) (*coupon.Coupon, error) {
	c, ok := m.coupons[code]
	if !ok {
		return nil, coupon.ErrNotFound
	}
	return c, nil
}

type mockDeliveryRepo struct {
	options []delivery.Option
}

func (m *mockDeliveryRepo) ListActive(_ context.Context) ([]delivery.Option, error) {
	return m.options, nil
}

func (m *mockDeliveryRepo) GetActive(_ context.Context, id string) (*delivery.Option, error) {
	for i := range m.options {
		if m.options[i].ID == id {
			return &m.options[i], nil
		}
	}
	return nil, delivery.ErrNotFound
}

type mockChargeRepo struct {
	rules []charge.Rule
}

func (m *mockChargeRepo) ListActive(_ context.Context) ([]charge.Rule, error) {
	return m.rules, nil
}

type mockOrderRepo struct {
	orders map[string]*order.Order
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[string]*order.Order)}
}

func (m *mockOrderRepo) Create(_ context.Context, o *order.Order) error {
	m.orders[o.ID] = o
	return nil
}

func (m *mockOrderRepo) Get(_ context.Context, id string) (*order.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o, nil
}

func (m *mockOrderRepo) GetStatus(_ context.Context, id string) (order.Status, error) {
	o, ok := m.orders[id]
	if !ok {
		return "", order.ErrNotFound
	}
	return o.Status, nil
}

func (m *mockOrderRepo) UpdateStatusCAS(_ context.Context, id string, expected, next order.Status) error {
	o, ok := m.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	if o.Status != expected {
		return order.ErrStatusConflict
	}
	o.Status = next
	return nil
}

func (m *mockOrderRepo) SetStatus(_ context.Context, id string, status order.Status) error {
	o, ok := m.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	o.Status = status
	return nil
}

func (m *mockOrderRepo) ListItemQuantities(_ context.Context, orderID string) ([]order.ItemQuantity, error) {
	o, ok := m.orders[orderID]
	if !ok {
		return nil, order.ErrNotFound
	}
	out := make([]order.ItemQuantity, len(o.Items))
	for i, item := range o.Items {
		out[i] = order.ItemQuantity{ProductID: item.ProductID, VariantID: item.VariantID, Quantity: item.Quantity}
	}
	return out, nil
}

func (m *mockOrderRepo) ListSummaryRows(_ context.Context) ([]order.SummaryRow, error) {
	var out []order.SummaryRow
	for _, o := range m.orders {
		out = append(out, order.SummaryRow{
			ID: o.ID, Status: o.Status, Currency: o.Currency,
			ShippingAddress: o.ShippingAddress, ItemsCount: len(o.Items),
		})
	}
	return out, nil
}

func (m *mockOrderRepo) UpdateNotes(_ context.Context, id, notes string) error {
	o, ok := m.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	o.Notes = notes
	return nil
}

func (m *mockOrderRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.orders[id]; !ok {
		return order.ErrNotFound
	}
	delete(m.orders, id)
	return nil
}

type mockInventoryRepo struct{}

func (mockInventoryRepo) Get(context.Context, string, string) (*inventory.Record, error) {
	return nil, inventory.ErrNotFound
}

func (mockInventoryRepo) Adjust(context.Context, string, string, int) (*inventory.Adjustment, error) {
	return nil, inventory.ErrNotFound
}

func (mockInventoryRepo) SetQuantity(context.Context, string, int) error {
	return inventory.ErrNotFound
}

type mockDashboardRepo struct{}

func (mockDashboardRepo) CountProducts(context.Context) (int, error)   { return 4, nil }
func (mockDashboardRepo) CountCategories(context.Context) (int, error) { return 2, nil }
func (mockDashboardRepo) CountOrders(context.Context) (int, error)     { return 9, nil }
func (mockDashboardRepo) CountOrdersByStatus(context.Context, string) (int, error) {
	return 3, nil
}
func (mockDashboardRepo) CountLowStock(context.Context, int) (int, error) { return 1, nil }
func (mockDashboardRepo) SalesByDay(context.Context, dashboard.SalesRange) ([]dashboard.SalesPoint, error) {
	return nil, nil
}

type mockAPIKeyRepo struct {
	info *auth.APIKeyInfo
	err  error
}

func (m *mockAPIKeyRepo) FindByHash(_ context.Context, hash string) (*auth.APIKeyInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.info == nil || m.info.KeyHash != hash {
		return nil, errors.New("api key not found")
	}
	return m.info, nil
}

// --- Helpers ---

const testPepper = "test-pepper"

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

type fixture struct {
	router   *mux.Router
	orders   *mockOrderRepo
	products *mockProductRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	products := &mockProductRepo{products: []product.Product{
		{ID: "p1", Name: "Widget", SKU: "W-1", Price: d("10.00"), IsActive: true},
		{ID: "p2", Name: "Gadget", SKU: "G-1", Price: d("24.50"), IsActive: true},
	}}
	coupons := &mockCouponRepo{coupons: map[string]*coupon.Coupon{
		"SAVE10": {ID: "c1", Code: "SAVE10", CalcType: coupon.CalcPercent, Amount: d("10"), IsActive: true},
	}}
	deliveries := &mockDeliveryRepo{options: []delivery.Option{
		{ID: "dl1", Label: "Standard", Amount: d("4.99"), IsActive: true, IsDefault: true},
	}}
	charges := &mockChargeRepo{}
	orders := newMockOrderRepo()

	checkoutSvc := checkout.NewService(coupons, deliveries, charges)
	orderSvc := order.NewService(order.Config{}, orders, mockInventoryRepo{}, products, checkoutSvc)
	dashboardSvc := dashboard.NewService(mockDashboardRepo{}, 5)

	apikeys := &mockAPIKeyRepo{info: &auth.APIKeyInfo{
		ID:      "k1",
		KeyHash: auth.HashKey([]byte(testPepper), "apikey_valid"),
		Name:    "test",
		Scopes:  []string{"*"},
	}}

	h := NewHandler(products, deliveries, checkoutSvc, orderSvc, dashboardSvc, apikeys, []byte(testPepper))
	router := mux.NewRouter()
	h.Routes(router)

	return &fixture{router: router, orders: orders, products: products}
}

func (f *fixture) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

var adminHeaders = map[string]string{"X-API-Key": "apikey_valid"}

// --- Public surface ---

func TestListProducts(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/products", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)

	items, ok := env.Data.([]any)
	require.True(t, ok)
	assert.Len(t, items, 2)
}

func TestGetProduct_NotFound(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/products/ghost", nil, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
}

func TestQuote(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/checkout/quote", quoteRequest{
		Items: []cartItemRequest{
			{ProductID: "p1", Quantity: 2, Price: 10.00},
		},
		DeliveryID: "dl1",
		CouponCode: "SAVE10",
	}, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	require.True(t, env.Success)

	data, ok := env.Data.(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 20.00, data["subtotal"], 0.001)
	// 20 - 10% + 4.99 delivery
	assert.InDelta(t, 22.99, data["total"], 0.001)
}

func TestQuote_UnknownCouponIgnored(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/checkout/quote", quoteRequest{
		Items:      []cartItemRequest{{ProductID: "p1", Quantity: 1, Price: 10.00}},
		CouponCode: "NOPE",
	}, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeEnvelope(t, rec).Data.(map[string]any)
	assert.InDelta(t, 10.00, data["total"], 0.001)
	assert.Nil(t, data["discount"])
}

func TestApplyCoupon_Rejected(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/checkout/coupon", map[string]any{
		"code":  "NOPE",
		"items": []cartItemRequest{{ProductID: "p1", Quantity: 1, Price: 10.00}},
	}, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Error)
}

func TestApplyCoupon_Valid(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/checkout/coupon", map[string]any{
		"code":  "SAVE10",
		"items": []cartItemRequest{{ProductID: "p1", Quantity: 2, Price: 10.00}},
	}, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeEnvelope(t, rec).Data.(map[string]any)
	assert.Equal(t, "SAVE10", data["code"])
	assert.InDelta(t, 2.00, data["amount"], 0.001)
}

func TestPlaceOrder(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/orders", placeOrderRequest{
		Items: []cartItemRequest{{ProductID: "p1", Quantity: 1, Price: 10.00}},
		ShippingAddress: map[string]any{
			"fullName": "Ada Lovelace",
			"email":    "ada@example.com",
		},
	}, nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	data := decodeEnvelope(t, rec).Data.(map[string]any)
	assert.Equal(t, "pending", data["status"])
	assert.NotEmpty(t, data["id"])
	assert.Len(t, f.orders.orders, 1)
}

func TestPlaceOrder_EmptyItems(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/orders", placeOrderRequest{}, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlaceOrder_UnknownProduct(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/orders", placeOrderRequest{
		Items: []cartItemRequest{{ProductID: "ghost", Quantity: 1, Price: 5.00}},
	}, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestOrderConfirmation_PublicAccess(t *testing.T) {
	f := newFixture(t)
	f.orders.orders["o1"] = &order.Order{ID: "o1", Status: order.StatusPending, Currency: "USD"}

	rec := f.do(t, http.MethodGet, "/api/orders/o1/confirmation", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeEnvelope(t, rec).Data.(map[string]any)
	assert.Equal(t, "o1", data["id"])
}

// --- Admin surface ---

func TestAdminRequiresAPIKey(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name    string
		headers map[string]string
	}{
		{name: "missing key", headers: nil},
		{name: "wrong key", headers: map[string]string{"X-API-Key": "apikey_wrong"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, "/api/admin/orders", nil, tt.headers)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestAdminListOrders(t *testing.T) {
	f := newFixture(t)
	f.orders.orders["o1"] = &order.Order{ID: "o1", Status: order.StatusPending, Currency: "USD"}
	f.orders.orders["o2"] = &order.Order{ID: "o2", Status: order.StatusPaid, Currency: "USD"}

	rec := f.do(t, http.MethodGet, "/api/admin/orders?status=paid", nil, adminHeaders)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeEnvelope(t, rec).Data.(map[string]any)

	orders := data["orders"].([]any)
	assert.Len(t, orders, 1)

	counts := data["counts"].(map[string]any)
	assert.EqualValues(t, 2, counts["all"])
	assert.EqualValues(t, 1, counts["pending"])
}

func TestAdminUpdateStatus(t *testing.T) {
	f := newFixture(t)
	f.orders.orders["o1"] = &order.Order{ID: "o1", Status: order.StatusPending, Currency: "USD"}

	rec := f.do(t, http.MethodPatch, "/api/admin/orders/o1/status",
		map[string]string{"status": "paid"}, adminHeaders)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeEnvelope(t, rec).Data.(map[string]any)
	assert.Equal(t, "paid", data["status"])
}

func TestAdminUpdateStatus_Invalid(t *testing.T) {
	f := newFixture(t)
	f.orders.orders["o1"] = &order.Order{ID: "o1", Status: order.StatusPending}

	rec := f.do(t, http.MethodPatch, "/api/admin/orders/o1/status",
		map[string]string{"status": "teleported"}, adminHeaders)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminUpdateStatus_NotFound(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPatch, "/api/admin/orders/ghost/status",
		map[string]string{"status": "paid"}, adminHeaders)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminUpdateNotes(t *testing.T) {
	f := newFixture(t)
	f.orders.orders["o1"] = &order.Order{ID: "o1", Status: order.StatusPending, Currency: "USD"}

	rec := f.do(t, http.MethodPatch, "/api/admin/orders/o1/notes",
		map[string]string{"notes": "call before delivery"}, adminHeaders)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeEnvelope(t, rec).Data.(map[string]any)
	assert.Equal(t, "call before delivery", data["notes"])
}

func TestAdminDeleteOrder(t *testing.T) {
	f := newFixture(t)
	f.orders.orders["o1"] = &order.Order{ID: "o1", Status: order.StatusPending}

	rec := f.do(t, http.MethodDelete, "/api/admin/orders/o1", nil, adminHeaders)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, f.orders.orders)
}

func TestAdminDashboardStats(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/admin/dashboard/stats", nil, adminHeaders)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeEnvelope(t, rec).Data.(map[string]any)
	assert.EqualValues(t, 4, data["products"])
	assert.EqualValues(t, 3, data["pendingOrders"])
}
