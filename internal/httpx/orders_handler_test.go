package httpx

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ariefcatur/go-shop-services/internal/apperr"
	"github.com/ariefcatur/go-shop-services/internal/metrics"
	"github.com/ariefcatur/go-shop-services/internal/orders"
	"github.com/ariefcatur/go-shop-services/internal/products"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ordersEnv struct {
	router   *chi.Mux
	products *products.MemoryStore
	orders   *orders.MemoryStore
}

// newOrdersEnv runs a real product service over HTTP and points the order
// service's client at it.
func newOrdersEnv(t *testing.T) *ordersEnv {
	t.Helper()
	pstore := products.NewMemoryStore()
	prouter := NewRouter(RouterConfig{})
	(&ProductsHandler{Service: products.NewService(pstore)}).Register(prouter)
	psrv := httptest.NewServer(prouter)
	t.Cleanup(psrv.Close)

	m := metrics.New("orders_test")
	ostore := orders.NewMemoryStore()
	svc := orders.NewService(ostore, orders.NewHTTPProductClient(psrv.URL, time.Second, m))
	router := NewRouter(RouterConfig{Metrics: m})
	(&OrdersHandler{Service: svc}).Register(router)

	return &ordersEnv{router: router, products: pstore, orders: ostore}
}

func (e *ordersEnv) seed(t *testing.T, name, price string, stock int, active bool) int64 {
	t.Helper()
	p := products.Product{Name: name, Price: decimal.RequireFromString(price), StockQuantity: stock, Active: active}
	require.NoError(t, e.products.Create(context.Background(), &p))
	return p.ID
}

func (e *ordersEnv) stock(t *testing.T, id int64) int {
	t.Helper()
	p, err := e.products.Get(context.Background(), id)
	require.NoError(t, err)
	return p.StockQuantity
}

func orderBody(items ...orders.ItemInput) orders.Draft {
	return orders.Draft{UserID: 42, Items: items, ShippingAddress: "Jl. Thamrin 10", PaymentMethod: "CARD"}
}

func TestOrdersAPI_CreateAndCancel(t *testing.T) {
	e := newOrdersEnv(t)
	mug := e.seed(t, "Mug", "10.00", 10, true)
	lamp := e.seed(t, "Lamp", "25.00", 3, true)

	rec := doJSON(t, e.router, http.MethodPost, "/orders", orderBody(
		orders.ItemInput{ProductID: mug, Quantity: 2},
		orders.ItemInput{ProductID: lamp, Quantity: 1},
	))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	o := decode[orders.Order](t, rec)
	assert.Equal(t, orders.StatusPending, o.Status)
	assert.True(t, o.TotalAmount.Equal(decimal.RequireFromString("45.00")), "total=%s", o.TotalAmount)
	require.Len(t, o.Items, 2)
	assert.Equal(t, "Mug", o.Items[0].ProductName)
	assert.Equal(t, 8, e.stock(t, mug))
	assert.Equal(t, 2, e.stock(t, lamp))

	rec = doJSON(t, e.router, http.MethodPut, fmt.Sprintf("/orders/%d/cancel", o.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 10, e.stock(t, mug))
	assert.Equal(t, 3, e.stock(t, lamp))

	rec = doJSON(t, e.router, http.MethodGet, fmt.Sprintf("/orders/%d", o.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, orders.StatusCancelled, decode[orders.Order](t, rec).Status)
}

func TestOrdersAPI_CreateFailuresAre400(t *testing.T) {
	e := newOrdersEnv(t)
	empty := e.seed(t, "Empty", "5.00", 0, true)
	hidden := e.seed(t, "Hidden", "5.00", 9, false)
	plenty := e.seed(t, "Plenty", "1.00", 5, true)

	cases := []struct {
		name string
		body any
		kind apperr.Kind
	}{
		{"insufficient stock", orderBody(orders.ItemInput{ProductID: empty, Quantity: 1}), apperr.KindBusinessRule},
		{"unknown product", orderBody(orders.ItemInput{ProductID: 999, Quantity: 1}), apperr.KindNotFound},
		{"inactive product", orderBody(orders.ItemInput{ProductID: hidden, Quantity: 1}), apperr.KindNotFound},
		{"no items", orderBody(), apperr.KindBusinessRule},
		{"bad json", "{", apperr.KindBusinessRule},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, e.router, http.MethodPost, "/orders", tc.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, tc.kind, decode[errorBody](t, rec).Kind)
		})
	}

	rec := doJSON(t, e.router, http.MethodPost, "/orders", orderBody(
		orders.ItemInput{ProductID: plenty, Quantity: 2},
		orders.ItemInput{ProductID: empty, Quantity: 1},
	))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 3, e.stock(t, plenty), "earlier item stays reserved")
	assert.Equal(t, 9, e.stock(t, hidden))
	assert.Zero(t, e.orders.Len())
}

func TestOrdersAPI_ProductServiceDown(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	url := dead.URL
	dead.Close()

	svc := orders.NewService(orders.NewMemoryStore(), orders.NewHTTPProductClient(url, 200*time.Millisecond, nil))
	router := NewRouter(RouterConfig{})
	(&OrdersHandler{Service: svc}).Register(router)

	rec := doJSON(t, router, http.MethodPost, "/orders", orderBody(orders.ItemInput{ProductID: 1, Quantity: 1}))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperr.KindRemoteCall, decode[errorBody](t, rec).Kind)
}

func TestOrdersAPI_UpdateStatus(t *testing.T) {
	e := newOrdersEnv(t)
	id := e.seed(t, "Mug", "10.00", 10, true)
	rec := doJSON(t, e.router, http.MethodPost, "/orders", orderBody(orders.ItemInput{ProductID: id, Quantity: 1}))
	require.Equal(t, http.StatusCreated, rec.Code)
	o := decode[orders.Order](t, rec)

	rec = doJSON(t, e.router, http.MethodPut, fmt.Sprintf("/orders/%d/status?status=LOST", o.ID), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, e.router, http.MethodPut, "/orders/999/status?status=SHIPPED", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, e.router, http.MethodPut, fmt.Sprintf("/orders/%d/cancel", o.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, e.router, http.MethodPut, fmt.Sprintf("/orders/%d/status?status=CONFIRMED", o.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, orders.StatusConfirmed, decode[orders.Order](t, rec).Status)
}

func TestOrdersAPI_CancelEdgeCases(t *testing.T) {
	e := newOrdersEnv(t)
	id := e.seed(t, "Mug", "10.00", 10, true)

	rec := doJSON(t, e.router, http.MethodPut, "/orders/777/cancel", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, e.router, http.MethodPost, "/orders", orderBody(orders.ItemInput{ProductID: id, Quantity: 4}))
	require.Equal(t, http.StatusCreated, rec.Code)
	o := decode[orders.Order](t, rec)
	rec = doJSON(t, e.router, http.MethodPut, fmt.Sprintf("/orders/%d/status?status=SHIPPED", o.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, e.router, http.MethodPut, fmt.Sprintf("/orders/%d/cancel", o.ID), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 6, e.stock(t, id))

	rec = doJSON(t, e.router, http.MethodGet, fmt.Sprintf("/orders/%d", o.ID), nil)
	assert.Equal(t, orders.StatusShipped, decode[orders.Order](t, rec).Status)
}

func TestOrdersAPI_Listings(t *testing.T) {
	e := newOrdersEnv(t)
	id := e.seed(t, "Mug", "10.00", 10, true)
	rec := doJSON(t, e.router, http.MethodPost, "/orders", orderBody(orders.ItemInput{ProductID: id, Quantity: 1}))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, e.router, http.MethodGet, "/orders", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]orders.Order](t, rec), 1)

	rec = doJSON(t, e.router, http.MethodGet, "/orders/user/42", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]orders.Order](t, rec), 1)

	rec = doJSON(t, e.router, http.MethodGet, "/orders/user/7", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]orders.Order](t, rec))

	rec = doJSON(t, e.router, http.MethodGet, "/orders/status/pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]orders.Order](t, rec), 1)

	rec = doJSON(t, e.router, http.MethodGet, "/orders/status/nope", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	now := time.Now().UTC()
	path := fmt.Sprintf("/orders/date-range?startDate=%s&endDate=%s",
		now.Add(-time.Hour).Format("2006-01-02T15:04:05"), now.Add(time.Hour).Format("2006-01-02T15:04:05"))
	rec = doJSON(t, e.router, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode[[]orders.Order](t, rec), 1)

	rec = doJSON(t, e.router, http.MethodGet, "/orders/date-range?startDate=yesterday&endDate=today", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, e.router, http.MethodGet, "/orders/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, e.router, http.MethodGet, "/orders/12345", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
