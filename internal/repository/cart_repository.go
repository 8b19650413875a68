package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jsm-masala/storefront/internal/domain"
)

type CartRepository struct {
	db *DB
}

func NewCartRepository(db *DB) *CartRepository {
	return &CartRepository{db: db}
}

func (r *CartRepository) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	cart := &domain.Cart{UserID: userID, Items: []domain.CartLine{}}

	err := r.db.queryRow(ctx,
		"SELECT id, created_at, updated_at FROM carts WHERE user_id = ?", userID,
	).Scan(&cart.ID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("cart for user", userID)
		}
		return nil, fmt.Errorf("cart receive error: %w", err)
	}
	cart.CreatedAt = cart.CreatedAt.UTC()
	cart.UpdatedAt = cart.UpdatedAt.UTC()

	rows, err := r.db.query(ctx, `
		SELECT product_id, variant_id, quantity, price, name, pack, image
		FROM cart_items
		WHERE cart_id = ?
		ORDER BY position`, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("cart items retrieval error: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l domain.CartLine
		if err := rows.Scan(&l.ProductID, &l.VariantID, &l.Quantity, &l.Price, &l.Name, &l.Pack, &l.Image); err != nil {
			return nil, fmt.Errorf("cart item scan error: %w", err)
		}
		cart.Items = append(cart.Items, l)
	}
	return cart, rows.Err()
}

// SaveCart replaces the stored cart for cart.UserID with the given lines.
// Concurrent saves for one user are last-write-wins.
func (r *CartRepository) SaveCart(ctx context.Context, cart *domain.Cart) error {
	cart.UpdatedAt = time.Now().UTC()

	return r.db.inTx(ctx, func(tx conn) error {
		_, err := tx.exec(ctx, `
			INSERT INTO carts (id, user_id, created_at, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (user_id) DO UPDATE SET updated_at = excluded.updated_at`,
			cart.ID, cart.UserID, cart.CreatedAt, cart.UpdatedAt)
		if err != nil {
			return fmt.Errorf("cart upsert error: %w", err)
		}

		// Another request may have created the row first.
		if err := tx.queryRow(ctx, "SELECT id FROM carts WHERE user_id = ?", cart.UserID).Scan(&cart.ID); err != nil {
			return fmt.Errorf("cart id lookup error: %w", err)
		}

		if _, err := tx.exec(ctx, "DELETE FROM cart_items WHERE cart_id = ?", cart.ID); err != nil {
			return fmt.Errorf("cart items reset error: %w", err)
		}

		for i, l := range cart.Items {
			_, err := tx.exec(ctx, `
				INSERT INTO cart_items (cart_id, product_id, variant_id, quantity, price, name, pack, image, position)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				cart.ID, l.ProductID, l.VariantID, l.Quantity, l.Price, l.Name, l.Pack, l.Image, i)
			if err != nil {
				return fmt.Errorf("cart item insert error: %w", err)
			}
		}
		return nil
	})
}

// DeleteCart removes the cart and its lines. Deleting a missing cart is
// not an error.
func (r *CartRepository) DeleteCart(ctx context.Context, userID string) error {
	return r.db.inTx(ctx, func(tx conn) error {
		if _, err := tx.exec(ctx,
			"DELETE FROM cart_items WHERE cart_id IN (SELECT id FROM carts WHERE user_id = ?)", userID); err != nil {
			return fmt.Errorf("cart items delete error: %w", err)
		}
		if _, err := tx.exec(ctx, "DELETE FROM carts WHERE user_id = ?", userID); err != nil {
			return fmt.Errorf("cart delete error: %w", err)
		}
		return nil
	})
}
