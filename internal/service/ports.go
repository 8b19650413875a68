package service

import (
	"context"

	"github.com/jsm-masala/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

type ProductStore interface {
	CreateProduct(ctx context.Context, p *domain.Product) error
	GetProduct(ctx context.Context, idOrSlug string) (*domain.Product, error)
	UpdateProduct(ctx context.Context, p *domain.Product) error
	DeleteProduct(ctx context.Context, id string) error
	FindVariant(ctx context.Context, productID, variantID string) (domain.Variant, error)
	ListProducts(ctx context.Context, f domain.ProductFilter) ([]*domain.Product, int, error)
	DecrementStockBatch(ctx context.Context, lines []domain.StockDecrement) error
	SetVariantStock(ctx context.Context, productID, variantID string, stock int) error
	CountProducts(ctx context.Context) (int, error)
	CountOutOfStock(ctx context.Context) (int, error)
}

type CartStore interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	SaveCart(ctx context.Context, cart *domain.Cart) error
	DeleteCart(ctx context.Context, userID string) error
}

type OrderStore interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrder(ctx context.Context, ref string) (*domain.Order, error)
	GetOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error)
	ListOrders(ctx context.Context, limit, offset int) ([]*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, order *domain.Order) error
	CountOrders(ctx context.Context) (int, error)
	CountOrdersByStatus(ctx context.Context, status domain.OrderStatus) (int, error)
	Revenue(ctx context.Context, statuses ...domain.OrderStatus) (decimal.Decimal, error)
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, n *domain.Notification) error
	UpdateNotification(ctx context.Context, n *domain.Notification) error
	GetNotification(ctx context.Context, id string) (*domain.Notification, error)
	GetNotificationsByOrderID(ctx context.Context, orderID string) ([]*domain.Notification, error)
}

// Notifier hands an email off for delivery. Callers treat failures as
// non-fatal.
type Notifier interface {
	Send(ctx context.Context, email domain.Email) error
}

// Mailer actually delivers an email.
type Mailer interface {
	Deliver(ctx context.Context, email domain.Email) error
}

type OrderNumberSource interface {
	Next() (string, error)
}
