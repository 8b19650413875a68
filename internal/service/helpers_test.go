package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jsm-masala/storefront/internal/domain"
	"github.com/jsm-masala/storefront/internal/repository"
	"github.com/jsm-masala/storefront/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu     sync.Mutex
	emails []domain.Email
	err    error
}

func (n *recordingNotifier) Send(_ context.Context, email domain.Email) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.emails = append(n.emails, email)
	return nil
}

func (n *recordingNotifier) sent() []domain.Email {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.Email(nil), n.emails...)
}

type sequenceNumbers struct {
	mu      sync.Mutex
	numbers []string
}

func (s *sequenceNumbers) Next() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.numbers) == 0 {
		return "", errors.New("sequence exhausted")
	}
	n := s.numbers[0]
	s.numbers = s.numbers[1:]
	return n, nil
}

type harness struct {
	db       *repository.DB
	products *repository.ProductRepository
	carts    *repository.CartRepository
	orders   *repository.OrderRepository
	notifier *recordingNotifier

	catalog *CatalogService
	cart    *CartService
	order   *OrderService
	stats   *StatsService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := repository.Open(context.Background(), string(repository.SQLite), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	numbers, err := domain.NewOrderNumberGenerator("JSM")
	require.NoError(t, err)

	h := &harness{
		db:       db,
		products: repository.NewProductRepository(db),
		carts:    repository.NewCartRepository(db),
		orders:   repository.NewOrderRepository(db),
		notifier: &recordingNotifier{},
	}
	log := logger.Discard()
	h.catalog = NewCatalogService(h.products, log)
	h.cart = NewCartService(h.carts, h.products, log)
	h.order = NewOrderService(h.orders, h.carts, h.products, h.notifier, numbers, "JSM Masala", log)
	h.stats = NewStatsService(h.orders, h.products, log)
	return h
}

func (h *harness) product(t *testing.T, name string, price int64, stock int) *domain.Product {
	t.Helper()
	p, err := h.catalog.CreateProduct(context.Background(), domain.CreateProductRequest{
		Name:       name,
		CategoryID: "spices",
		Variants:   []domain.VariantInput{{Pack: "100g", Price: decimal.NewFromInt(price), Stock: stock}},
	})
	require.NoError(t, err)
	return p
}

func (h *harness) stock(t *testing.T, p *domain.Product) int {
	t.Helper()
	v, err := h.products.FindVariant(context.Background(), p.ID, p.Variants[0].ID)
	require.NoError(t, err)
	return v.Stock
}

func buyer(id string) domain.Identity {
	return domain.Identity{UserID: id, Role: "user", Name: "Asha Rao", Email: id + "@example.com"}
}

func orderRequest() domain.PlaceOrderRequest {
	return domain.PlaceOrderRequest{
		ShippingAddress: domain.ShippingAddress{
			FirstName: "Asha", LastName: "Rao", Address: "12 MG Road", City: "Pune", State: "MH",
			ZipCode: "411001", Phone: "9876543210", Email: "asha@example.com",
		},
		PaymentMethod: "Card",
		PaymentResult: &domain.PaymentResult{ID: "pi_1", Status: domain.PaymentStatusSucceeded},
	}
}
