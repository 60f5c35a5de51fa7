package httpx

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/ariefcatur/go-shop-services/internal/products"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProductsRouter(t *testing.T) *chi.Mux {
	t.Helper()
	r := NewRouter(RouterConfig{})
	(&ProductsHandler{Service: products.NewService(products.NewMemoryStore())}).Register(r)
	return r
}

func createProduct(t *testing.T, r http.Handler, body map[string]any) products.Product {
	t.Helper()
	rec := doJSON(t, r, http.MethodPost, "/products", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[products.Product](t, rec)
}

func TestProductsAPI_CRUD(t *testing.T) {
	r := newProductsRouter(t)

	p := createProduct(t, r, map[string]any{"name": "Kettle", "price": "19.99", "category": "kitchen", "brand": "Acme", "stockQuantity": 4})
	assert.True(t, p.Active, "active defaults to true")
	assert.True(t, p.Price.Equal(decimal.RequireFromString("19.99")))

	rec := doJSON(t, r, http.MethodPost, "/products", map[string]any{"name": "", "price": "1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = doJSON(t, r, http.MethodPost, "/products", map[string]any{"name": "x", "price": "-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodGet, fmt.Sprintf("/products/%d", p.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Kettle", decode[products.Product](t, rec).Name)

	rec = doJSON(t, r, http.MethodPut, fmt.Sprintf("/products/%d", p.ID), map[string]any{"name": "Kettle 2", "price": 21.5, "stockQuantity": 4})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Kettle 2", decode[products.Product](t, rec).Name)

	rec = doJSON(t, r, http.MethodPut, "/products/999", map[string]any{"name": "ghost", "price": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/products/%d", p.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = doJSON(t, r, http.MethodDelete, "/products/999", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, r, http.MethodGet, fmt.Sprintf("/products/%d", p.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = doJSON(t, r, http.MethodGet, "/products/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductsAPI_AdjustStock(t *testing.T) {
	r := newProductsRouter(t)
	p := createProduct(t, r, map[string]any{"name": "Widget", "price": "1.00", "stockQuantity": 2})

	path := func(q string) string { return fmt.Sprintf("/products/%d/stock?quantity=%s", p.ID, q) }

	rec := doJSON(t, r, http.MethodPut, path("2"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[bool](t, rec))

	rec = doJSON(t, r, http.MethodPut, path("1"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[bool](t, rec))

	rec = doJSON(t, r, http.MethodPut, path("-5"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[bool](t, rec))

	rec = doJSON(t, r, http.MethodGet, fmt.Sprintf("/products/%d", p.ID), nil)
	assert.Equal(t, 5, decode[products.Product](t, rec).StockQuantity)

	rec = doJSON(t, r, http.MethodPut, path("lots"), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductsAPI_Listings(t *testing.T) {
	r := newProductsRouter(t)
	createProduct(t, r, map[string]any{"name": "Red Phone", "price": "199.99", "category": "phones", "brand": "Acme", "stockQuantity": 5})
	createProduct(t, r, map[string]any{"name": "Blue Phone", "price": "99.50", "category": "phones", "brand": "Globex", "stockQuantity": 0})
	createProduct(t, r, map[string]any{"name": "Laptop", "price": "999.00", "category": "computers", "brand": "Acme", "stockQuantity": 1})
	createProduct(t, r, map[string]any{"name": "Retired Phone", "price": "5.00", "category": "phones", "brand": "Acme", "stockQuantity": 9, "active": false})

	count := func(path string) int {
		t.Helper()
		rec := doJSON(t, r, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code, path)
		return len(decode[[]products.Product](t, rec))
	}

	assert.Equal(t, 3, count("/products"))
	assert.Equal(t, 2, count("/products/category/phones"))
	assert.Equal(t, 2, count("/products/brand/Acme"))
	assert.Equal(t, 2, count("/products/search?name=phone"))
	assert.Equal(t, 2, count("/products/price-range?minPrice=50&maxPrice=200"))
	assert.Equal(t, 2, count("/products/available"))
	assert.Equal(t, 2, count("/products/max-price/200"))

	rec := doJSON(t, r, http.MethodGet, "/products/price-range?minPrice=abc&maxPrice=1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = doJSON(t, r, http.MethodGet, "/products/price-range?minPrice=10&maxPrice=1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
