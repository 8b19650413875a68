package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jsm-masala/storefront/internal/domain"
	"github.com/jsm-masala/storefront/internal/repository"
	"github.com/jsm-masala/storefront/internal/service"
	"github.com/jsm-masala/storefront/pkg/logger"
	"github.com/stretchr/testify/require"
)

type nopNotifier struct{ sent []domain.Email }

func (n *nopNotifier) Send(_ context.Context, email domain.Email) error {
	n.sent = append(n.sent, email)
	return nil
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
	RequestID string `json:"request_id"`
}

type testServer struct {
	app      *fiber.App
	db       *repository.DB
	notifier *nopNotifier
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	db, err := repository.Open(ctx, string(repository.SQLite), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logger.Discard()
	products := repository.NewProductRepository(db)
	carts := repository.NewCartRepository(db)
	orders := repository.NewOrderRepository(db)
	numbers, err := domain.NewOrderNumberGenerator("JSM")
	require.NoError(t, err)
	notifier := &nopNotifier{}

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(log)})
	RegisterStorefrontRoutes(app, StorefrontHandlers{
		Health:   NewHealthHandler("storefront", db),
		Products: NewProductHandler(service.NewCatalogService(products, log), log),
		Carts:    NewCartHandler(service.NewCartService(carts, products, log), log),
		Orders:   NewOrderHandler(service.NewOrderService(orders, carts, products, notifier, numbers, "JSM Masala", log), log),
		Admin:    NewAdminHandler(service.NewStatsService(orders, products, log), log),
	})
	return &testServer{app: app, db: db, notifier: notifier}
}

func admin() map[string]string {
	return map[string]string{HeaderUserID: "admin-1", HeaderUserRole: "admin"}
}

func customer(id string) map[string]string {
	return map[string]string{HeaderUserID: id, HeaderUserRole: "user", HeaderUserEmail: id + "@example.com"}
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers map[string]string) (int, envelope) {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func (s *testServer) createProduct(t *testing.T, name string, price, stock int) domain.Product {
	t.Helper()
	status, env := s.do(t, fiber.MethodPost, "/api/v1/products", map[string]any{
		"name":        name,
		"category_id": "spices",
		"variants":    []map[string]any{{"pack": "100g", "price": price, "stock": stock}},
	}, admin())
	require.Equal(t, fiber.StatusCreated, status, env.Message)

	var p domain.Product
	require.NoError(t, json.Unmarshal(env.Data, &p))
	return p
}

func checkoutBody() map[string]any {
	return map[string]any{
		"shippingAddress": map[string]any{
			"firstName": "Asha", "lastName": "Rao", "address": "12 MG Road", "city": "Pune",
			"state": "MH", "zipCode": "411001", "phone": "9876543210", "email": "Asha@Example.com",
		},
		"paymentMethod": "Card",
		"paymentResult": map[string]any{"id": "pi_1", "status": "succeeded"},
	}
}
