package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jsm-masala/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

type OrderRepository struct {
	db *DB
}

func NewOrderRepository(db *DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// CreateOrder returns ErrConflict when the order number is already taken.
func (r *OrderRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("items serialization error: %w", err)
	}
	addressJSON, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return fmt.Errorf("shipping address serialization error: %w", err)
	}
	var paymentJSON any
	if order.PaymentResult != nil {
		b, err := json.Marshal(order.PaymentResult)
		if err != nil {
			return fmt.Errorf("payment result serialization error: %w", err)
		}
		paymentJSON = string(b)
	}

	_, err = r.db.exec(ctx, `
		INSERT INTO orders (
			id, order_number, user_id, items, shipping_address, payment_method, payment_result,
			items_price, shipping_price, tax_price, total_price,
			is_paid, paid_at, order_status, delivered_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.OrderNumber, order.UserID, string(itemsJSON), string(addressJSON),
		order.PaymentMethod, paymentJSON,
		order.ItemsPrice, order.ShippingPrice, order.TaxPrice, order.TotalPrice,
		order.IsPaid, nullTime(order.PaidAt), string(order.Status), nullTime(order.DeliveredAt),
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: order number %s", domain.ErrConflict, order.OrderNumber)
		}
		return fmt.Errorf("order creation error: %w", err)
	}
	return nil
}

// UpdateOrderStatus persists the mutable fields of an order.
func (r *OrderRepository) UpdateOrderStatus(ctx context.Context, order *domain.Order) error {
	res, err := r.db.exec(ctx, `
		UPDATE orders
		SET order_status = ?, delivered_at = ?, is_paid = ?, paid_at = ?, updated_at = ?
		WHERE id = ?`,
		string(order.Status), nullTime(order.DeliveredAt), order.IsPaid, nullTime(order.PaidAt),
		order.UpdatedAt, order.ID)
	if err != nil {
		return fmt.Errorf("order update error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("order", order.ID)
	}
	return nil
}

const orderColumns = `
	id, order_number, user_id, items, shipping_address, payment_method, payment_result,
	items_price, shipping_price, tax_price, total_price,
	is_paid, paid_at, order_status, delivered_at, created_at, updated_at`

func scanOrder(row rowScanner) (*domain.Order, error) {
	o := &domain.Order{}
	var (
		itemsJSON, addressJSON []byte
		paymentJSON            sql.NullString
		status                 string
		paidAt, deliveredAt    sql.NullTime
	)

	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &itemsJSON, &addressJSON, &o.PaymentMethod, &paymentJSON,
		&o.ItemsPrice, &o.ShippingPrice, &o.TaxPrice, &o.TotalPrice,
		&o.IsPaid, &paidAt, &status, &deliveredAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, fmt.Errorf("items deserialization error: %w", err)
	}
	if err := json.Unmarshal(addressJSON, &o.ShippingAddress); err != nil {
		return nil, fmt.Errorf("shipping address deserialization error: %w", err)
	}
	if paymentJSON.Valid && paymentJSON.String != "" {
		o.PaymentResult = &domain.PaymentResult{}
		if err := json.Unmarshal([]byte(paymentJSON.String), o.PaymentResult); err != nil {
			return nil, fmt.Errorf("payment result deserialization error: %w", err)
		}
	}

	o.Status = domain.OrderStatus(status)
	o.PaidAt = timePtr(paidAt)
	o.DeliveredAt = timePtr(deliveredAt)
	o.CreatedAt = o.CreatedAt.UTC()
	o.UpdatedAt = o.UpdatedAt.UTC()
	return o, nil
}

// GetOrder accepts either the internal id or the order number.
func (r *OrderRepository) GetOrder(ctx context.Context, ref string) (*domain.Order, error) {
	row := r.db.queryRow(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE id = ? OR order_number = ? LIMIT 1", ref, ref)

	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("order", ref)
		}
		return nil, fmt.Errorf("order receive error: %w", err)
	}
	return o, nil
}

func (r *OrderRepository) GetOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error) {
	return r.list(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE user_id = ? ORDER BY created_at DESC, id", userID)
}

func (r *OrderRepository) ListOrders(ctx context.Context, limit, offset int) ([]*domain.Order, error) {
	return r.list(ctx,
		"SELECT "+orderColumns+" FROM orders ORDER BY created_at DESC, id LIMIT ? OFFSET ?", limit, offset)
}

func (r *OrderRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Order, error) {
	rows, err := r.db.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("orders retrieval error: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("order scan error: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *OrderRepository) CountOrders(ctx context.Context) (int, error) {
	var n int
	if err := r.db.queryRow(ctx, "SELECT COUNT(*) FROM orders").Scan(&n); err != nil {
		return 0, fmt.Errorf("orders count error: %w", err)
	}
	return n, nil
}

func (r *OrderRepository) CountOrdersByStatus(ctx context.Context, status domain.OrderStatus) (int, error) {
	var n int
	err := r.db.queryRow(ctx, "SELECT COUNT(*) FROM orders WHERE order_status = ?", string(status)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("orders count error: %w", err)
	}
	return n, nil
}

// Revenue sums total_price over orders in the given statuses.
func (r *OrderRepository) Revenue(ctx context.Context, statuses ...domain.OrderStatus) (decimal.Decimal, error) {
	if len(statuses) == 0 {
		return decimal.Zero, nil
	}
	args := make([]any, len(statuses))
	for i, s := range statuses {
		args[i] = string(s)
	}

	var total decimal.Decimal
	err := r.db.queryRow(ctx,
		"SELECT COALESCE(SUM(total_price), 0) FROM orders WHERE order_status IN ("+placeholders(len(args))+")",
		args...).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("revenue error: %w", err)
	}
	return total.Round(2), nil
}
