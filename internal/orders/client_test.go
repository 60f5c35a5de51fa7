package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/ariefcatur/go-shop-services/internal/apperr"
	"github.com/ariefcatur/go-shop-services/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubProductServer(t *testing.T) (*httptest.Server, *int) {
	t.Helper()
	stock := 3
	r := chi.NewRouter()
	r.Get("/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		switch chi.URLParam(r, "id") {
		case "1":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":1,"name":"Mug","price":"10.00","stockQuantity":` + strconv.Itoa(stock) + `,"active":true}`))
		case "500":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	r.Put("/products/{id}/stock", func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("Accept"))
		q, err := strconv.Atoi(r.URL.Query().Get("quantity"))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		ok := stock >= q
		if ok {
			stock -= q
		}
		_ = json.NewEncoder(w).Encode(ok)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, &stock
}

func TestHTTPProductClient_Fetch(t *testing.T) {
	srv, _ := stubProductServer(t)
	m := metrics.New("test")
	c := NewHTTPProductClient(srv.URL+"/", time.Second, m)
	ctx := context.Background()

	p, err := c.FetchProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Mug", p.Name)
	assert.Equal(t, "10", p.Price.String())
	assert.Equal(t, 3, p.StockQuantity)
	assert.True(t, p.Active)

	_, err = c.FetchProduct(ctx, 2)
	require.ErrorIs(t, err, ErrProductNotFound)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = c.FetchProduct(ctx, 500)
	require.ErrorIs(t, err, apperr.ErrRemoteCall)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExternalRequests.WithLabelValues(productPeer, "fetch_product", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExternalRequests.WithLabelValues(productPeer, "fetch_product", "not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExternalRequests.WithLabelValues(productPeer, "fetch_product", "error")))
}

func TestHTTPProductClient_AdjustStock(t *testing.T) {
	srv, stock := stubProductServer(t)
	c := NewHTTPProductClient(srv.URL, time.Second, nil)
	ctx := context.Background()

	ok, err := c.AdjustStock(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, *stock)

	ok, err = c.AdjustStock(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.AdjustStock(ctx, 1, -2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, *stock)
}

func TestHTTPProductClient_TimeoutIsRemoteFailure(t *testing.T) {
	r := chi.NewRouter()
	release := make(chan struct{})
	r.Get("/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	m := metrics.New("test")
	c := NewHTTPProductClient(srv.URL, 50*time.Millisecond, m)
	_, err := c.FetchProduct(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, apperr.KindRemoteCall, apperr.KindOf(err))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExternalRequests.WithLabelValues(productPeer, "fetch_product", "timeout")))
}

func TestCreateOrder_OverHTTPClient(t *testing.T) {
	srv, stock := stubProductServer(t)
	svc := NewService(NewMemoryStore(), NewHTTPProductClient(srv.URL, time.Second, nil))

	o, err := svc.CreateOrder(context.Background(), draft(ItemInput{ProductID: 1, Quantity: 2}))
	require.NoError(t, err)
	assert.Equal(t, "20", o.TotalAmount.String())
	assert.Equal(t, 1, *stock)

	require.NoError(t, svc.CancelOrder(context.Background(), o.ID))
	assert.Equal(t, 3, *stock)
}
