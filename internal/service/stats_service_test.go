package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboard(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	stats, err := h.stats.Dashboard(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalOrders)
	assert.True(t, stats.TotalRevenue.IsZero())

	a := h.product(t, "Garam Masala", 100, 5)
	b := h.product(t, "Saffron", 600, 1)

	_, err = h.cart.AddItem(ctx, "u1", a.ID, a.Variants[0].ID, 2)
	require.NoError(t, err)
	first, err := h.order.PlaceOrder(ctx, buyer("u1"), orderRequest())
	require.NoError(t, err)

	_, err = h.cart.AddItem(ctx, "u2", b.ID, b.Variants[0].ID, 1)
	require.NoError(t, err)
	_, err = h.order.PlaceOrder(ctx, buyer("u2"), orderRequest())
	require.NoError(t, err)

	_, err = h.order.SetStatus(ctx, first.ID, "Delivered")
	require.NoError(t, err)

	stats, err = h.stats.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalOrders)
	assert.Equal(t, 1, stats.PendingOrders)
	assert.Equal(t, first.TotalPrice.StringFixed(2), stats.TotalRevenue.StringFixed(2))
	assert.Equal(t, 2, stats.TotalProducts)
	assert.Equal(t, 1, stats.OutOfStockProducts, "saffron sold out")
}
