package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jsm-masala/storefront/internal/domain"
)

const maxOrderNumberAttempts = 5

type PlacementStep string

const (
	StepValidateRequest PlacementStep = "validate_request"
	StepLoadCart        PlacementStep = "load_cart"
	StepSnapshotLines   PlacementStep = "snapshot_lines"
	StepPriceOrder      PlacementStep = "price_order"
	StepPersistOrder    PlacementStep = "persist_order"
	StepDecrementStock  PlacementStep = "decrement_stock"
	StepDeleteCart      PlacementStep = "delete_cart"
	StepNotifyCustomer  PlacementStep = "notify_customer"
)

type failurePolicy int

const (
	// abortBeforeCommit steps return their error to the caller; nothing
	// has been persisted yet.
	abortBeforeCommit failurePolicy = iota
	// bestEffort steps run after the order is stored; failures are logged.
	bestEffort
)

type placementStep struct {
	name   PlacementStep
	policy failurePolicy
	run    func(ctx context.Context, p *placement) error
}

// placement carries state between pipeline steps.
type placement struct {
	identity domain.Identity
	req      domain.PlaceOrderRequest
	cart     *domain.Cart
	lines    []domain.OrderLine
	prices   domain.Prices
	order    *domain.Order
}

type OrderService struct {
	orders    OrderStore
	carts     CartStore
	products  ProductStore
	notifier  Notifier
	numbers   OrderNumberSource
	storeName string
	log       *slog.Logger

	steps []placementStep
}

func NewOrderService(
	orders OrderStore,
	carts CartStore,
	products ProductStore,
	notifier Notifier,
	numbers OrderNumberSource,
	storeName string,
	log *slog.Logger,
) *OrderService {
	s := &OrderService{
		orders:    orders,
		carts:     carts,
		products:  products,
		notifier:  notifier,
		numbers:   numbers,
		storeName: storeName,
		log:       log.With("component", "orders"),
	}
	s.steps = []placementStep{
		{StepValidateRequest, abortBeforeCommit, s.validateRequest},
		{StepLoadCart, abortBeforeCommit, s.loadCart},
		{StepSnapshotLines, abortBeforeCommit, s.snapshotLines},
		{StepPriceOrder, abortBeforeCommit, s.priceOrder},
		{StepPersistOrder, abortBeforeCommit, s.persistOrder},
		{StepDecrementStock, bestEffort, s.decrementStock},
		{StepDeleteCart, bestEffort, s.deleteCart},
		{StepNotifyCustomer, bestEffort, s.notifyCustomer},
	}
	return s
}

// PlaceOrder turns the caller's cart into a stored Pending order. Once
// the order is persisted the remaining steps cannot fail the request and
// are not cancelled by the caller going away.
func (s *OrderService) PlaceOrder(ctx context.Context, identity domain.Identity, req domain.PlaceOrderRequest) (*domain.Order, error) {
	p := &placement{identity: identity, req: req}

	detached := false
	for _, step := range s.steps {
		if step.policy == bestEffort && !detached {
			ctx = context.WithoutCancel(ctx)
			detached = true
		}

		err := step.run(ctx, p)
		if err == nil {
			continue
		}

		switch step.policy {
		case abortBeforeCommit:
			return nil, err
		case bestEffort:
			s.log.Error("order placement step failed",
				"order_id", p.order.OrderNumber, "user_id", identity.UserID, "step", step.name, "err", err)
		}
	}

	s.log.Info("order placed",
		"order_id", p.order.OrderNumber, "user_id", identity.UserID,
		"total", p.order.TotalPrice.StringFixed(2), "lines", len(p.order.Items))
	return p.order, nil
}

func (s *OrderService) validateRequest(_ context.Context, p *placement) error {
	if p.identity.UserID == "" {
		return fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	return p.req.Validate()
}

func (s *OrderService) loadCart(ctx context.Context, p *placement) error {
	cart, err := s.carts.GetCart(ctx, p.identity.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrEmptyCart
	}
	if err != nil {
		return err
	}
	if len(cart.Items) == 0 {
		return domain.ErrEmptyCart
	}
	p.cart = cart
	return nil
}

func (s *OrderService) snapshotLines(_ context.Context, p *placement) error {
	p.lines = p.cart.SnapshotLines()
	return nil
}

func (s *OrderService) priceOrder(_ context.Context, p *placement) error {
	p.prices = domain.CalculatePrices(p.cart.TotalPrice())
	return nil
}

// persistOrder retries with a fresh order number when the generated one
// collides with an existing order.
func (s *OrderService) persistOrder(ctx context.Context, p *placement) error {
	var lastErr error
	for attempt := 1; attempt <= maxOrderNumberAttempts; attempt++ {
		number, err := s.numbers.Next()
		if err != nil {
			return fmt.Errorf("failed to generate order number: %w", err)
		}

		order := domain.NewOrder(p.identity.UserID, number, p.lines, p.req, p.prices)
		err = s.orders.CreateOrder(ctx, order)
		if err == nil {
			p.order = order
			return nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return err
		}

		lastErr = err
		s.log.Warn("order number collision, regenerating", "order_id", number, "attempt", attempt)
	}
	return fmt.Errorf("could not allocate a unique order number: %w", lastErr)
}

func (s *OrderService) decrementStock(ctx context.Context, p *placement) error {
	lines := make([]domain.StockDecrement, len(p.order.Items))
	for i, it := range p.order.Items {
		lines[i] = domain.StockDecrement{ProductID: it.ProductID, VariantID: it.VariantID, Quantity: it.Quantity}
	}
	return s.products.DecrementStockBatch(ctx, lines)
}

func (s *OrderService) deleteCart(ctx context.Context, p *placement) error {
	return s.carts.DeleteCart(ctx, p.identity.UserID)
}

func (s *OrderService) notifyCustomer(ctx context.Context, p *placement) error {
	return s.notifier.Send(ctx, domain.OrderConfirmationEmail(s.storeName, p.order))
}

// GetOrder resolves ref as either the internal id or the order number.
func (s *OrderService) GetOrder(ctx context.Context, identity domain.Identity, ref string) (*domain.Order, error) {
	order, err := s.orders.GetOrder(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !order.VisibleTo(identity) {
		return nil, fmt.Errorf("%w: not authorized to view this order", domain.ErrForbidden)
	}
	return order, nil
}

func (s *OrderService) MyOrders(ctx context.Context, identity domain.Identity) ([]*domain.Order, error) {
	return s.orders.GetOrdersByUserID(ctx, identity.UserID)
}

func (s *OrderService) ListOrders(ctx context.Context, page, limit int) ([]*domain.Order, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.orders.ListOrders(ctx, limit, (page-1)*limit)
}

// SetStatus applies an admin status change. Any status may follow any
// other. The customer is emailed only when the status actually changes
// into Shipped, Delivered or Cancelled.
func (s *OrderService) SetStatus(ctx context.Context, ref, status string) (*domain.Order, error) {
	next, err := domain.ParseOrderStatus(status)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.GetOrder(ctx, ref)
	if err != nil {
		return nil, err
	}

	prev := order.UpdateStatus(next)
	if err := s.orders.UpdateOrderStatus(ctx, order); err != nil {
		return nil, err
	}

	s.log.Info("order status updated", "order_id", order.OrderNumber, "from", prev, "to", next)

	if prev != next && next.Notifies() {
		email := domain.OrderStatusEmail(s.storeName, order)
		if err := s.notifier.Send(context.WithoutCancel(ctx), email); err != nil {
			s.log.Error("order status notification failed", "order_id", order.OrderNumber, "status", next, "err", err)
		}
	}
	return order, nil
}
