package redisx

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ariefcatur/go-shop-services/internal/orders"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*OrderCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := New(mr.Addr())
	t.Cleanup(func() { _ = rdb.Close() })
	return NewOrderCache(rdb, time.Minute), mr
}

func TestOrderCache_RoundTrip(t *testing.T) {
	c, mr := setup(t)
	ctx := context.Background()

	_, ok := c.Get(ctx, 1)
	assert.False(t, ok)

	o := &orders.Order{
		ID:          1,
		UserID:      9,
		Status:      orders.StatusPending,
		TotalAmount: decimal.RequireFromString("45.00"),
		Items: []orders.OrderItem{
			{ID: 1, ProductID: 5, ProductName: "Mug", Quantity: 2, UnitPrice: decimal.RequireFromString("10.00"), TotalPrice: decimal.RequireFromString("20.00")},
		},
	}
	c.Set(ctx, o)
	assert.True(t, mr.Exists("order:1"))
	assert.Equal(t, time.Minute, mr.TTL("order:1"))

	got, ok := c.Get(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, orders.StatusPending, got.Status)
	assert.True(t, got.TotalAmount.Equal(o.TotalAmount))
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Mug", got.Items[0].ProductName)

	c.Delete(ctx, 1)
	_, ok = c.Get(ctx, 1)
	assert.False(t, ok)
}

func TestOrderCache_CorruptEntryIsDropped(t *testing.T) {
	c, mr := setup(t)
	require.NoError(t, mr.Set("order:3", "{not json"))

	_, ok := c.Get(context.Background(), 3)
	assert.False(t, ok)
	assert.False(t, mr.Exists("order:3"))
}

func TestOrderCache_RedisDownIsMiss(t *testing.T) {
	c, mr := setup(t)
	mr.Close()

	ctx := context.Background()
	c.Set(ctx, &orders.Order{ID: 2})
	_, ok := c.Get(ctx, 2)
	assert.False(t, ok)
	c.Delete(ctx, 2)
}
