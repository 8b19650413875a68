package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jsm-masala/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

type ProductRepository struct {
	db *DB
}

func NewProductRepository(db *DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) CreateProduct(ctx context.Context, p *domain.Product) error {
	imagesJSON, err := json.Marshal(p.Images)
	if err != nil {
		return fmt.Errorf("images serialization error: %w", err)
	}
	tagsJSON, err := json.Marshal(p.Tags)
	if err != nil {
		return fmt.Errorf("tags serialization error: %w", err)
	}

	err = r.db.inTx(ctx, func(tx conn) error {
		_, err := tx.exec(ctx, `
			INSERT INTO products (
				id, name, slug, category_id, short_description, description,
				images, tags, rating, reviews_count, is_featured, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Name, p.Slug, p.CategoryID, p.ShortDescription, p.Description,
			string(imagesJSON), string(tagsJSON), p.Rating, p.ReviewsCount, p.IsFeatured,
			p.CreatedAt, p.UpdatedAt,
		)
		if err != nil {
			return err
		}

		for i, v := range p.Variants {
			var mrp any
			if v.MRP != nil {
				mrp = *v.MRP
			}
			_, err := tx.exec(ctx, `
				INSERT INTO product_variants (id, product_id, pack, price, mrp, stock, position)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				v.ID, p.ID, v.Pack, v.Price, mrp, v.Stock, i,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: product with slug %q", domain.ErrConflict, p.Slug)
		}
		return fmt.Errorf("product creation error: %w", err)
	}
	return nil
}

const productColumns = `
	p.id, p.name, p.slug, p.category_id, p.short_description, p.description,
	p.images, p.tags, p.rating, p.reviews_count, p.is_featured, p.created_at, p.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	p := &domain.Product{}
	var imagesJSON, tagsJSON []byte

	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.CategoryID, &p.ShortDescription, &p.Description,
		&imagesJSON, &tagsJSON, &p.Rating, &p.ReviewsCount, &p.IsFeatured,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(imagesJSON, &p.Images); err != nil {
		return nil, fmt.Errorf("images deserialization error: %w", err)
	}
	if err := json.Unmarshal(tagsJSON, &p.Tags); err != nil {
		return nil, fmt.Errorf("tags deserialization error: %w", err)
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

// GetProduct looks a product up by id, falling back to slug.
func (r *ProductRepository) GetProduct(ctx context.Context, idOrSlug string) (*domain.Product, error) {
	row := r.db.queryRow(ctx,
		`SELECT `+productColumns+` FROM products p WHERE p.id = ? OR p.slug = ?
		 ORDER BY CASE WHEN p.id = ? THEN 0 ELSE 1 END LIMIT 1`,
		idOrSlug, idOrSlug, idOrSlug)

	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("product", idOrSlug)
		}
		return nil, fmt.Errorf("product receive error: %w", err)
	}

	if err := r.loadVariants(ctx, []*domain.Product{p}); err != nil {
		return nil, err
	}
	return p, nil
}

// FindVariant returns NotFound when either the product or the variant is gone.
func (r *ProductRepository) FindVariant(ctx context.Context, productID, variantID string) (domain.Variant, error) {
	v := domain.Variant{}
	var mrp decimal.NullDecimal

	err := r.db.queryRow(ctx, `
		SELECT id, pack, price, mrp, stock
		FROM product_variants
		WHERE product_id = ? AND id = ?`,
		productID, variantID,
	).Scan(&v.ID, &v.Pack, &v.Price, &mrp, &v.Stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Variant{}, notFound("variant", variantID)
		}
		return domain.Variant{}, fmt.Errorf("variant receive error: %w", err)
	}
	if mrp.Valid {
		v.MRP = &mrp.Decimal
	}
	return v, nil
}

func (r *ProductRepository) ListProducts(ctx context.Context, f domain.ProductFilter) ([]*domain.Product, int, error) {
	f.Normalize()

	var (
		where []string
		args  []any
	)
	if f.CategoryID != "" {
		where = append(where, "p.category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.Featured {
		where = append(where, "p.is_featured = ?")
		args = append(args, true)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		where = append(where, `LOWER(p.name) LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(strings.ToLower(s))+"%")
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		cond := "EXISTS (SELECT 1 FROM product_variants pv WHERE pv.product_id = p.id"
		if f.MinPrice != nil {
			cond += " AND pv.price >= ?"
			args = append(args, *f.MinPrice)
		}
		if f.MaxPrice != nil {
			cond += " AND pv.price <= ?"
			args = append(args, *f.MaxPrice)
		}
		where = append(where, cond+")")
	}

	whereSQL := ""
	if len(where) > 0 {
		whereSQL = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.queryRow(ctx, "SELECT COUNT(*) FROM products p"+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("products count error: %w", err)
	}

	minPrice := "(SELECT MIN(pv.price) FROM product_variants pv WHERE pv.product_id = p.id)"
	var orderBy string
	switch f.Sort {
	case domain.SortPriceAsc:
		orderBy = minPrice + " ASC, p.id"
	case domain.SortPriceDesc:
		orderBy = minPrice + " DESC, p.id"
	case domain.SortRating:
		orderBy = "p.rating DESC, p.created_at DESC, p.id"
	default:
		orderBy = "p.created_at DESC, p.id"
	}

	query := "SELECT " + productColumns + " FROM products p" + whereSQL +
		" ORDER BY " + orderBy + " LIMIT ? OFFSET ?"
	rows, err := r.db.query(ctx, query, append(args, f.Limit, f.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("products retrieval error: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("product scan error: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	rows.Close()

	if err := r.loadVariants(ctx, products); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *ProductRepository) loadVariants(ctx context.Context, products []*domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	byID := make(map[string]*domain.Product, len(products))
	args := make([]any, 0, len(products))
	for _, p := range products {
		p.Variants = []domain.Variant{}
		byID[p.ID] = p
		args = append(args, p.ID)
	}

	rows, err := r.db.query(ctx, `
		SELECT product_id, id, pack, price, mrp, stock
		FROM product_variants
		WHERE product_id IN (`+placeholders(len(args))+`)
		ORDER BY product_id, position`, args...)
	if err != nil {
		return fmt.Errorf("variants retrieval error: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			productID string
			v         domain.Variant
			mrp       decimal.NullDecimal
		)
		if err := rows.Scan(&productID, &v.ID, &v.Pack, &v.Price, &mrp, &v.Stock); err != nil {
			return fmt.Errorf("variant scan error: %w", err)
		}
		if mrp.Valid {
			v.MRP = &mrp.Decimal
		}
		if p, ok := byID[productID]; ok {
			p.Variants = append(p.Variants, v)
		}
	}
	return rows.Err()
}

// DecrementStock subtracts qty in a single guarded statement so
// concurrent buyers can never drive stock below zero.
func (r *ProductRepository) DecrementStock(ctx context.Context, productID, variantID string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidInput)
	}

	res, err := r.db.exec(ctx, `
		UPDATE product_variants SET stock = stock - ?
		WHERE product_id = ? AND id = ? AND stock >= ?`,
		qty, productID, variantID, qty)
	if err != nil {
		return fmt.Errorf("stock decrement error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	var exists int
	err = r.db.queryRow(ctx,
		"SELECT 1 FROM product_variants WHERE product_id = ? AND id = ?",
		productID, variantID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound("variant", variantID)
	}
	if err != nil {
		return fmt.Errorf("variant lookup error: %w", err)
	}
	return fmt.Errorf("%w: variant %s cannot cover %d", domain.ErrInsufficientStock, variantID, qty)
}

// DecrementStockBatch applies each line independently. Lines that succeed
// stay applied; failures are joined into the returned error.
func (r *ProductRepository) DecrementStockBatch(ctx context.Context, lines []domain.StockDecrement) error {
	var errs []error
	for _, l := range lines {
		if err := r.DecrementStock(ctx, l.ProductID, l.VariantID, l.Quantity); err != nil {
			errs = append(errs, fmt.Errorf("product %s variant %s: %w", l.ProductID, l.VariantID, err))
		}
	}
	return errors.Join(errs...)
}

// SetVariantStock overwrites stock with an absolute value.
func (r *ProductRepository) SetVariantStock(ctx context.Context, productID, variantID string, stock int) error {
	if stock < 0 {
		return fmt.Errorf("%w: stock cannot be negative", domain.ErrInvalidInput)
	}

	return r.db.inTx(ctx, func(tx conn) error {
		res, err := tx.exec(ctx,
			"UPDATE product_variants SET stock = ? WHERE product_id = ? AND id = ?",
			stock, productID, variantID)
		if err != nil {
			return fmt.Errorf("stock update error: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return notFound("variant", variantID)
		}
		_, err = tx.exec(ctx, "UPDATE products SET updated_at = ? WHERE id = ?", time.Now().UTC(), productID)
		return err
	})
}

// UpdateProduct rewrites the product row and reconciles its variants:
// variants missing from p are deleted, known ids are updated in place and
// the rest are inserted.
func (r *ProductRepository) UpdateProduct(ctx context.Context, p *domain.Product) error {
	imagesJSON, err := json.Marshal(p.Images)
	if err != nil {
		return fmt.Errorf("images serialization error: %w", err)
	}
	tagsJSON, err := json.Marshal(p.Tags)
	if err != nil {
		return fmt.Errorf("tags serialization error: %w", err)
	}

	err = r.db.inTx(ctx, func(tx conn) error {
		res, err := tx.exec(ctx, `
			UPDATE products SET
				name = ?, slug = ?, category_id = ?, short_description = ?, description = ?,
				images = ?, tags = ?, is_featured = ?, updated_at = ?
			WHERE id = ?`,
			p.Name, p.Slug, p.CategoryID, p.ShortDescription, p.Description,
			string(imagesJSON), string(tagsJSON), p.IsFeatured, p.UpdatedAt, p.ID,
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return notFound("product", p.ID)
		}

		keep := make([]any, 0, len(p.Variants)+1)
		keep = append(keep, p.ID)
		for _, v := range p.Variants {
			keep = append(keep, v.ID)
		}
		_, err = tx.exec(ctx,
			"DELETE FROM product_variants WHERE product_id = ? AND id NOT IN ("+placeholders(len(p.Variants))+")",
			keep...)
		if err != nil {
			return err
		}

		for i, v := range p.Variants {
			var mrp any
			if v.MRP != nil {
				mrp = *v.MRP
			}
			res, err := tx.exec(ctx, `
				UPDATE product_variants SET pack = ?, price = ?, mrp = ?, stock = ?, position = ?
				WHERE product_id = ? AND id = ?`,
				v.Pack, v.Price, mrp, v.Stock, i, p.ID, v.ID,
			)
			if err != nil {
				return err
			}
			if n, err := res.RowsAffected(); err != nil {
				return err
			} else if n > 0 {
				continue
			}
			_, err = tx.exec(ctx, `
				INSERT INTO product_variants (id, product_id, pack, price, mrp, stock, position)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				v.ID, p.ID, v.Pack, v.Price, mrp, v.Stock, i,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: product with slug %q", domain.ErrConflict, p.Slug)
		}
		return fmt.Errorf("product update error: %w", err)
	}
	return nil
}

// DeleteProduct removes the product and its variants.
func (r *ProductRepository) DeleteProduct(ctx context.Context, id string) error {
	err := r.db.inTx(ctx, func(tx conn) error {
		if _, err := tx.exec(ctx, "DELETE FROM product_variants WHERE product_id = ?", id); err != nil {
			return err
		}
		res, err := tx.exec(ctx, "DELETE FROM products WHERE id = ?", id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return notFound("product", id)
		}
		return nil
	})
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("product deletion error: %w", err)
	}
	return err
}

// CountOutOfStock counts products none of whose variants have stock.
func (r *ProductRepository) CountOutOfStock(ctx context.Context) (int, error) {
	var n int
	err := r.db.queryRow(ctx, `
		SELECT COUNT(*) FROM products p
		WHERE NOT EXISTS (
			SELECT 1 FROM product_variants pv WHERE pv.product_id = p.id AND pv.stock > 0
		)`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("out of stock count error: %w", err)
	}
	return n, nil
}

func (r *ProductRepository) CountProducts(ctx context.Context) (int, error) {
	var n int
	if err := r.db.queryRow(ctx, "SELECT COUNT(*) FROM products").Scan(&n); err != nil {
		return 0, fmt.Errorf("products count error: %w", err)
	}
	return n, nil
}
