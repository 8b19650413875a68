package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jsm-masala/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubbornCarts refuses to delete carts.
type stubbornCarts struct {
	CartStore
}

func (stubbornCarts) DeleteCart(context.Context, string) error {
	return errors.New("cart store unavailable")
}

func TestPlaceOrder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.product(t, "Garam Masala", 100, 5)
	b := h.product(t, "Sambar Masala", 150, 3)

	_, err := h.cart.AddItem(ctx, "u1", a.ID, a.Variants[0].ID, 2)
	require.NoError(t, err)
	_, err = h.cart.AddItem(ctx, "u1", b.ID, b.Variants[0].ID, 1)
	require.NoError(t, err)

	order, err := h.order.PlaceOrder(ctx, buyer("u1"), orderRequest())
	require.NoError(t, err)

	assert.Regexp(t, `^JSM-\d{8}-[0-9A-F]{6}$`, order.OrderNumber)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, "u1", order.UserID)
	assert.Equal(t, "350.00", order.ItemsPrice.StringFixed(2))
	assert.Equal(t, "50.00", order.ShippingPrice.StringFixed(2))
	assert.Equal(t, "17.50", order.TaxPrice.StringFixed(2))
	assert.Equal(t, "417.50", order.TotalPrice.StringFixed(2))
	assert.True(t, order.IsPaid)
	require.Len(t, order.Items, 2)

	assert.Equal(t, 3, h.stock(t, a))
	assert.Equal(t, 2, h.stock(t, b))

	_, err = h.carts.GetCart(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound, "cart is deleted after placement")

	stored, err := h.orders.GetOrder(ctx, order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, order.ID, stored.ID)
	assert.True(t, stored.TotalPrice.Equal(decimal.RequireFromString("417.50")))

	sent := h.notifier.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "asha@example.com", sent[0].To)
	assert.Equal(t, order.OrderNumber, sent[0].OrderID)
	assert.Contains(t, sent[0].Subject, "Order Confirmation")
}

func TestPlaceOrderRejectsEmptyCart(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.order.PlaceOrder(ctx, buyer("u1"), orderRequest())
	assert.ErrorIs(t, err, domain.ErrEmptyCart)

	p := h.product(t, "Jeera", 20, 5)
	_, err = h.cart.AddItem(ctx, "u1", p.ID, p.Variants[0].ID, 1)
	require.NoError(t, err)
	_, err = h.cart.ClearCart(ctx, "u1")
	require.NoError(t, err)

	_, err = h.order.PlaceOrder(ctx, buyer("u1"), orderRequest())
	assert.ErrorIs(t, err, domain.ErrEmptyCart)

	n, err := h.orders.CountOrders(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, h.notifier.sent())
	assert.Equal(t, 5, h.stock(t, p))
}

func TestPlaceOrderValidatesBeforeTouchingCart(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.product(t, "Dhania", 25, 5)
	_, err := h.cart.AddItem(ctx, "u1", p.ID, p.Variants[0].ID, 1)
	require.NoError(t, err)

	req := orderRequest()
	req.ShippingAddress.ZipCode = "123"
	_, err = h.order.PlaceOrder(ctx, buyer("u1"), req)
	assert.ErrorIs(t, err, domain.ErrInvalidShippingAddress)

	req = orderRequest()
	req.PaymentMethod = ""
	_, err = h.order.PlaceOrder(ctx, buyer("u1"), req)
	assert.ErrorIs(t, err, domain.ErrInvalidPaymentMethod)

	view, err := h.cart.GetCart(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)
	assert.Equal(t, 5, h.stock(t, p))
}

func TestPlaceOrderLinesAreSnapshots(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.product(t, "Haldi", 60, 10)
	vid := p.Variants[0].ID

	_, err := h.cart.AddItem(ctx, "u1", p.ID, vid, 2)
	require.NoError(t, err)
	order, err := h.order.PlaceOrder(ctx, buyer("u1"), orderRequest())
	require.NoError(t, err)

	// A new cart and a restock must not reach the stored order.
	_, err = h.cart.AddItem(ctx, "u1", p.ID, vid, 5)
	require.NoError(t, err)
	_, err = h.catalog.SetVariantStock(ctx, p.ID, vid, 100)
	require.NoError(t, err)

	stored, err := h.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, 2, stored.Items[0].Quantity)
	assert.True(t, stored.Items[0].Price.Equal(decimal.NewFromInt(60)))
	assert.Equal(t, "Haldi", stored.Items[0].Name)
	assert.Equal(t, "100g", stored.Items[0].Pack)
}

func TestPlaceOrderBestEffortFailures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.product(t, "Kitchen King", 300, 5)
	_, err := h.cart.AddItem(ctx, "u1", p.ID, p.Variants[0].ID, 2)
	require.NoError(t, err)

	h.notifier.err = errors.New("smtp down")
	numbers, err := domain.NewOrderNumberGenerator("JSM")
	require.NoError(t, err)
	svc := NewOrderService(h.orders, stubbornCarts{CartStore: h.carts}, h.products, h.notifier, numbers, "JSM Masala", h.order.log)

	order, err := svc.PlaceOrder(ctx, buyer("u1"), orderRequest())
	require.NoError(t, err, "failures after the order is stored do not fail placement")
	assert.Equal(t, "600.00", order.ItemsPrice.StringFixed(2))
	assert.True(t, order.ShippingPrice.IsZero())

	_, err = h.orders.GetOrder(ctx, order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, 3, h.stock(t, p))

	_, err = h.carts.GetCart(ctx, "u1")
	assert.NoError(t, err, "cart survives a failed delete")
}

func TestPlaceOrderStockShortfallStillPlaces(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.product(t, "Chana Masala", 90, 2)
	_, err := h.cart.AddItem(ctx, "u1", p.ID, p.Variants[0].ID, 2)
	require.NoError(t, err)

	// Another buyer drains stock between cart and checkout.
	_, err = h.catalog.SetVariantStock(ctx, p.ID, p.Variants[0].ID, 1)
	require.NoError(t, err)

	order, err := h.order.PlaceOrder(ctx, buyer("u1"), orderRequest())
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, 1, h.stock(t, p), "stock is never driven negative")
}

func TestPlaceOrderRetriesOrderNumberCollision(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.product(t, "Rasam Powder", 70, 10)

	numbers := &sequenceNumbers{numbers: []string{
		"JSM-20240101-AAAAAA",
		"JSM-20240101-AAAAAA",
		"JSM-20240101-BBBBBB",
	}}
	svc := NewOrderService(h.orders, h.carts, h.products, h.notifier, numbers, "JSM Masala", h.order.log)

	for _, user := range []string{"u1", "u2"} {
		_, err := h.cart.AddItem(ctx, user, p.ID, p.Variants[0].ID, 1)
		require.NoError(t, err)
	}

	first, err := svc.PlaceOrder(ctx, buyer("u1"), orderRequest())
	require.NoError(t, err)
	assert.Equal(t, "JSM-20240101-AAAAAA", first.OrderNumber)

	second, err := svc.PlaceOrder(ctx, buyer("u2"), orderRequest())
	require.NoError(t, err)
	assert.Equal(t, "JSM-20240101-BBBBBB", second.OrderNumber)

	t.Run("gives up after repeated collisions", func(t *testing.T) {
		_, err := h.cart.AddItem(ctx, "u3", p.ID, p.Variants[0].ID, 1)
		require.NoError(t, err)

		stuck := &sequenceNumbers{}
		for i := 0; i < maxOrderNumberAttempts; i++ {
			stuck.numbers = append(stuck.numbers, "JSM-20240101-AAAAAA")
		}
		svc := NewOrderService(h.orders, h.carts, h.products, h.notifier, stuck, "JSM Masala", h.order.log)
		_, err = svc.PlaceOrder(ctx, buyer("u3"), orderRequest())
		assert.ErrorIs(t, err, domain.ErrConflict)
	})
}

func TestGetOrderVisibility(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.product(t, "Biryani Masala", 120, 5)
	_, err := h.cart.AddItem(ctx, "u1", p.ID, p.Variants[0].ID, 1)
	require.NoError(t, err)
	order, err := h.order.PlaceOrder(ctx, buyer("u1"), orderRequest())
	require.NoError(t, err)

	got, err := h.order.GetOrder(ctx, buyer("u1"), order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = h.order.GetOrder(ctx, buyer("u2"), order.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	admin := domain.Identity{UserID: "admin-1", Role: domain.RoleAdmin}
	_, err = h.order.GetOrder(ctx, admin, order.ID)
	assert.NoError(t, err)

	_, err = h.order.GetOrder(ctx, admin, "JSM-19990101-000000")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	mine, err := h.order.MyOrders(ctx, buyer("u1"))
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	theirs, err := h.order.MyOrders(ctx, buyer("u2"))
	require.NoError(t, err)
	assert.Empty(t, theirs)

	all, err := h.order.ListOrders(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSetStatus(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.product(t, "Pav Bhaji Masala", 80, 5)
	_, err := h.cart.AddItem(ctx, "u1", p.ID, p.Variants[0].ID, 1)
	require.NoError(t, err)
	order, err := h.order.PlaceOrder(ctx, buyer("u1"), orderRequest())
	require.NoError(t, err)
	confirmations := len(h.notifier.sent())

	steps := []struct {
		status   string
		notifies bool
	}{
		{"Pending", false},
		{"Processing", false},
		{"Shipped", true},
		{"Shipped", false},
		{"Delivered", true},
		{"Pending", false},
		{"Cancelled", true},
	}

	want := confirmations
	for _, step := range steps {
		updated, err := h.order.SetStatus(ctx, order.OrderNumber, step.status)
		require.NoError(t, err, step.status)
		assert.Equal(t, domain.OrderStatus(step.status), updated.Status)
		if step.notifies {
			want++
		}
		require.Len(t, h.notifier.sent(), want, "after %s", step.status)
	}

	sent := h.notifier.sent()
	assert.Contains(t, sent[confirmations].Text, "It is now on its way to you!")
	assert.Contains(t, sent[confirmations+1].Text, "Your order has been delivered. Enjoy!")

	stored, err := h.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, stored.Status)
	assert.NotNil(t, stored.DeliveredAt, "deliveredAt is kept after leaving Delivered")

	t.Run("invalid status is rejected before lookup", func(t *testing.T) {
		_, err := h.order.SetStatus(ctx, "no-such-order", "shipped")
		assert.ErrorIs(t, err, domain.ErrInvalidStatus)
	})

	t.Run("unknown order", func(t *testing.T) {
		_, err := h.order.SetStatus(ctx, "no-such-order", "Shipped")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("notification failure does not fail the update", func(t *testing.T) {
		h.notifier.err = errors.New("queue down")
		defer func() { h.notifier.err = nil }()
		updated, err := h.order.SetStatus(ctx, order.ID, "Delivered")
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusDelivered, updated.Status)
		require.NotNil(t, updated.DeliveredAt)
	})
}
