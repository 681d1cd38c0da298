package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dogu-dev/commerce-core/internal/auth"
	"github.com/dogu-dev/commerce-core/internal/basket"
	"github.com/dogu-dev/commerce-core/internal/checkout"
	"github.com/dogu-dev/commerce-core/internal/invoice"
	"github.com/dogu-dev/commerce-core/internal/ledger"
	"github.com/dogu-dev/commerce-core/internal/orders"
	"github.com/dogu-dev/commerce-core/internal/wishlist"
)

type testEnv struct {
	router http.Handler
	ledger *ledger.Ledger
	orders *orders.Store
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()

	lg := ledger.New()
	baskets := basket.NewStore(99)
	orderStore := orders.NewStore(lg)
	invoices := &invoice.Deriver{Orders: orderStore}
	co := &checkout.Service{Basket: baskets, Ledger: lg, Orders: orderStore}

	router := NewRouter(zap.NewNop())
	Mount(router,
		&BasketHandler{Basket: baskets, Checkout: co},
		&OrdersHandler{Orders: orderStore, Ledger: lg, Invoices: invoices},
		&CatalogHandler{Ledger: lg, Wishlist: wishlist.NewStore()},
		&AdminHandler{Ledger: lg, Orders: orderStore, Invoices: invoices},
	)
	return &testEnv{router: router, ledger: lg, orders: orderStore}
}

func (e *testEnv) do(t *testing.T, method, path, userID, role string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		req.Header.Set(auth.HeaderUserID, userID)
	}
	if role != "" {
		req.Header.Set(auth.HeaderRole, role)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestIdentityRequired(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodGet, "/basket-items", "", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminGate(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/admin/stats", "u1", "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(t, http.MethodGet, "/admin/stats", "admin", auth.RoleAdmin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCheckoutFlowOverHTTP(t *testing.T) {
	e := newEnv(t)
	e.ledger.Upsert(ledger.Product{ID: 7, Name: "kettle", PriceCents: 500, Available: 10})

	rec := e.do(t, http.MethodPost, "/basket-items", "u1", "", map[string]any{"product_id": 7, "qty": 2})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodPost, "/checkout", "u1", "", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var placed orders.Order
	decodeBody(t, rec, &placed)
	assert.Equal(t, orders.StatusPlaced, placed.Status)
	assert.Equal(t, int64(1000), placed.TotalCents)

	// basket is gone, stock moved
	rec = e.do(t, http.MethodGet, "/basket-items", "u1", "", nil)
	assert.JSONEq(t, "[]", rec.Body.String())
	p, _ := e.ledger.Get(7)
	assert.Equal(t, 8, p.Available)

	// invoice projection
	rec = e.do(t, http.MethodGet, "/invoices/order/"+placed.ID, "u1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var inv invoice.Invoice
	decodeBody(t, rec, &inv)
	assert.Equal(t, int64(1000), inv.TotalCents)

	// another user cannot see the order
	rec = e.do(t, http.MethodGet, "/orders/"+placed.ID, "u2", "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// cancel restores stock
	rec = e.do(t, http.MethodDelete, "/orders/"+placed.ID+"/cancel", "u1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	p, _ = e.ledger.Get(7)
	assert.Equal(t, 10, p.Available)
}

func TestCheckoutConflictBody(t *testing.T) {
	e := newEnv(t)
	e.ledger.Upsert(ledger.Product{ID: 2, Name: "B", PriceCents: 200, Available: 1})

	rec := e.do(t, http.MethodPost, "/basket-items", "u1", "", map[string]any{"product_id": 2, "qty": 2})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodPost, "/checkout", "u1", "", nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	var body map[string]any
	decodeBody(t, rec, &body)
	assert.Equal(t, float64(2), body["product_id"])
	assert.Equal(t, float64(2), body["requested"])
	assert.Equal(t, float64(1), body["available"])
}

func TestEmptyBasketCheckout(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodPost, "/checkout", "u1", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "basket is empty")
}

func TestStatusUpdateOverHTTP(t *testing.T) {
	e := newEnv(t)
	e.ledger.Upsert(ledger.Product{ID: 7, PriceCents: 500, Available: 10})
	_ = e.do(t, http.MethodPost, "/basket-items", "u1", "", map[string]any{"product_id": 7, "qty": 1})
	rec := e.do(t, http.MethodPost, "/checkout", "u1", "", nil)
	var placed orders.Order
	decodeBody(t, rec, &placed)

	rec = e.do(t, http.MethodPut, "/orders/"+placed.ID+"/status", "u1", "", map[string]string{"status": "CONFIRMED"})
	require.Equal(t, http.StatusOK, rec.Code)

	// idempotent replay
	rec = e.do(t, http.MethodPut, "/orders/"+placed.ID+"/status", "u1", "", map[string]string{"status": "CONFIRMED"})
	assert.Equal(t, http.StatusOK, rec.Code)

	// illegal edge reports from/to
	rec = e.do(t, http.MethodPut, "/orders/"+placed.ID+"/status", "u1", "", map[string]string{"status": "DELIVERED"})
	require.Equal(t, http.StatusConflict, rec.Code)
	var body map[string]any
	decodeBody(t, rec, &body)
	assert.Equal(t, "CONFIRMED", body["from"])
	assert.Equal(t, "DELIVERED", body["to"])
}

func TestAdminStockEndpoints(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/admin/products", "admin", auth.RoleAdmin, map[string]any{
		"id": 1, "name": "mug", "price_cents": 500, "quantity": 3,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// reduce within stock
	rec = e.do(t, http.MethodPut, "/admin/products/1/reduce-stock", "admin", auth.RoleAdmin, map[string]any{"quantity": 3})
	require.Equal(t, http.StatusOK, rec.Code)

	// must fail rather than go negative
	rec = e.do(t, http.MethodPut, "/admin/products/1/reduce-stock", "admin", auth.RoleAdmin, map[string]any{"quantity": 1})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = e.do(t, http.MethodPut, "/admin/products/1/restock", "admin", auth.RoleAdmin, map[string]any{"quantity": 5})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodGet, "/admin/low-stock?threshold=10", "admin", auth.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var low []ledger.Product
	decodeBody(t, rec, &low)
	require.Len(t, low, 1)
	assert.Equal(t, 5, low[0].Available)
}

func TestWishlistEndpoints(t *testing.T) {
	e := newEnv(t)
	e.ledger.Upsert(ledger.Product{ID: 3, Name: "pan", PriceCents: 900, Available: 1})

	rec := e.do(t, http.MethodPost, "/wishlist", "u1", "", map[string]any{"product_id": 3})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = e.do(t, http.MethodPost, "/wishlist", "u1", "", map[string]any{"product_id": 3})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = e.do(t, http.MethodPost, "/wishlist", "u1", "", map[string]any{"product_id": 99})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodDelete, "/wishlist/3", "u1", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
