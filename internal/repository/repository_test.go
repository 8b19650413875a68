package repository

import (
	"context"
	"testing"

	"github.com/jsm-masala/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), string(SQLite), ":memory:")
	require.NoError(t, err)
	require.NotNil(t, db)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedProduct(t *testing.T, repo *ProductRepository, name string, variants ...domain.VariantInput) *domain.Product {
	t.Helper()
	if len(variants) == 0 {
		variants = []domain.VariantInput{{Pack: "100g", Price: decimal.NewFromInt(100), Stock: 5}}
	}
	p := domain.NewProduct(domain.CreateProductRequest{
		Name:       name,
		CategoryID: "spices",
		Variants:   variants,
		Images:     []domain.ProductImage{{URL: "/img/" + domain.Slugify(name) + ".jpg"}},
	})
	require.NoError(t, repo.CreateProduct(context.Background(), p))
	return p
}
