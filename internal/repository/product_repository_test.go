package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/jsm-masala/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestCreateAndGetProduct(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	mrp := decimal.NewFromInt(120)
	p := seedProduct(t, repo, "Garam Masala",
		domain.VariantInput{Pack: "100g", Price: decimal.NewFromInt(100), MRP: &mrp, Stock: 5},
		domain.VariantInput{Pack: "200g", Price: decimal.RequireFromString("180.50"), Stock: 0},
	)

	t.Run("by id", func(t *testing.T) {
		got, err := repo.GetProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "garam-masala", got.Slug)
		require.Len(t, got.Variants, 2)
		assert.Equal(t, "100g", got.Variants[0].Pack)
		require.NotNil(t, got.Variants[0].MRP)
		assert.True(t, got.Variants[0].MRP.Equal(mrp))
		assert.Nil(t, got.Variants[1].MRP)
		assert.True(t, got.Variants[1].Price.Equal(decimal.RequireFromString("180.5")))
		assert.Equal(t, "/img/garam-masala.jpg", got.PrimaryImage())
	})

	t.Run("by slug", func(t *testing.T) {
		got, err := repo.GetProduct(ctx, "garam-masala")
		require.NoError(t, err)
		assert.Equal(t, p.ID, got.ID)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := repo.GetProduct(ctx, "nope")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("duplicate slug conflicts", func(t *testing.T) {
		dup := domain.NewProduct(domain.CreateProductRequest{
			Name: "garam masala", CategoryID: "spices",
			Variants: []domain.VariantInput{{Pack: "50g", Price: decimal.NewFromInt(10)}},
		})
		assert.ErrorIs(t, repo.CreateProduct(ctx, dup), domain.ErrConflict)
	})

	t.Run("find variant", func(t *testing.T) {
		v, err := repo.FindVariant(ctx, p.ID, p.Variants[1].ID)
		require.NoError(t, err)
		assert.Equal(t, "200g", v.Pack)

		_, err = repo.FindVariant(ctx, p.ID, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		_, err = repo.FindVariant(ctx, "missing", p.Variants[0].ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestListProducts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	cheap := seedProduct(t, repo, "Turmeric Powder",
		domain.VariantInput{Pack: "100g", Price: decimal.NewFromInt(40), Stock: 3})
	mid := seedProduct(t, repo, "Chole Masala",
		domain.VariantInput{Pack: "100g", Price: decimal.NewFromInt(90), Stock: 3},
		domain.VariantInput{Pack: "500g", Price: decimal.NewFromInt(400), Stock: 3})
	pricey := seedProduct(t, repo, "Saffron_Special",
		domain.VariantInput{Pack: "1g", Price: decimal.NewFromInt(250), Stock: 3})

	t.Run("default newest first with meta", func(t *testing.T) {
		got, total, err := repo.ListProducts(ctx, domain.ProductFilter{Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		assert.Len(t, got, 2)
	})

	t.Run("price ascending by cheapest variant", func(t *testing.T) {
		got, _, err := repo.ListProducts(ctx, domain.ProductFilter{Sort: domain.SortPriceAsc})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, []string{cheap.ID, mid.ID, pricey.ID}, []string{got[0].ID, got[1].ID, got[2].ID})
		assert.Len(t, got[1].Variants, 2)
	})

	t.Run("price descending", func(t *testing.T) {
		got, _, err := repo.ListProducts(ctx, domain.ProductFilter{Sort: domain.SortPriceDesc})
		require.NoError(t, err)
		assert.Equal(t, pricey.ID, got[0].ID)
	})

	t.Run("case insensitive search", func(t *testing.T) {
		got, total, err := repo.ListProducts(ctx, domain.ProductFilter{Search: "MASALA"})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, mid.ID, got[0].ID)
	})

	t.Run("search treats wildcards literally", func(t *testing.T) {
		got, _, err := repo.ListProducts(ctx, domain.ProductFilter{Search: "%"})
		require.NoError(t, err)
		assert.Empty(t, got)
		got, _, err = repo.ListProducts(ctx, domain.ProductFilter{Search: "n_s"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, pricey.ID, got[0].ID)
	})

	t.Run("price range matches any variant", func(t *testing.T) {
		lo, hi := decimal.NewFromInt(300), decimal.NewFromInt(500)
		got, total, err := repo.ListProducts(ctx, domain.ProductFilter{MinPrice: &lo, MaxPrice: &hi})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, mid.ID, got[0].ID)
	})

	t.Run("page past the end", func(t *testing.T) {
		got, total, err := repo.ListProducts(ctx, domain.ProductFilter{Page: 5, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		assert.Empty(t, got)
	})
}

func TestDecrementStock(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()
	p := seedProduct(t, repo, "Kitchen King")
	vid := p.Variants[0].ID

	require.NoError(t, repo.DecrementStock(ctx, p.ID, vid, 2))

	err := repo.DecrementStock(ctx, p.ID, vid, 4)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	err = repo.DecrementStock(ctx, p.ID, "missing", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	v, err := repo.FindVariant(ctx, p.ID, vid)
	require.NoError(t, err)
	assert.Equal(t, 3, v.Stock)
}

func TestConcurrentDecrementsConserveStock(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()
	p := seedProduct(t, repo, "Sambar Masala",
		domain.VariantInput{Pack: "100g", Price: decimal.NewFromInt(60), Stock: 10})
	vid := p.Variants[0].ID

	const buyers = 25
	results := make(chan error, buyers)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < buyers; i++ {
		g.Go(func() error {
			results <- repo.DecrementStock(gctx, p.ID, vid, 1)
			return nil
		})
	}
	require.NoError(t, g.Wait())
	close(results)

	succeeded, rejected := 0, 0
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrInsufficientStock):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 10, succeeded)
	assert.Equal(t, buyers-10, rejected)

	v, err := repo.FindVariant(ctx, p.ID, vid)
	require.NoError(t, err)
	assert.Equal(t, 0, v.Stock)
}

func TestDecrementStockBatchKeepsSuccessfulLines(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()
	a := seedProduct(t, repo, "Pav Bhaji Masala")
	b := seedProduct(t, repo, "Biryani Masala",
		domain.VariantInput{Pack: "50g", Price: decimal.NewFromInt(70), Stock: 1})

	err := repo.DecrementStockBatch(ctx, []domain.StockDecrement{
		{ProductID: a.ID, VariantID: a.Variants[0].ID, Quantity: 2},
		{ProductID: b.ID, VariantID: b.Variants[0].ID, Quantity: 3},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Contains(t, err.Error(), b.Variants[0].ID)

	va, err := repo.FindVariant(ctx, a.ID, a.Variants[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 3, va.Stock)

	vb, err := repo.FindVariant(ctx, b.ID, b.Variants[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, vb.Stock)
}

func TestSetVariantStockAndOutOfStockCount(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()
	p := seedProduct(t, repo, "Rasam Powder")
	seedProduct(t, repo, "Jeera")

	n, err := repo.CountOutOfStock(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, repo.SetVariantStock(ctx, p.ID, p.Variants[0].ID, 0))
	n, err = repo.CountOutOfStock(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.ErrorIs(t, repo.SetVariantStock(ctx, p.ID, p.Variants[0].ID, -1), domain.ErrInvalidInput)
	assert.ErrorIs(t, repo.SetVariantStock(ctx, p.ID, "missing", 3), domain.ErrNotFound)

	total, err := repo.CountProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestUpdateProduct(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	p := seedProduct(t, repo, "Garam Masala",
		domain.VariantInput{Pack: "100g", Price: decimal.NewFromInt(100), Stock: 5},
		domain.VariantInput{Pack: "200g", Price: decimal.NewFromInt(180), Stock: 3},
	)
	kept, dropped := p.Variants[0].ID, p.Variants[1].ID

	name := "Royal Garam Masala"
	tags := []string{"blend"}
	require.NoError(t, domain.UpdateProductRequest{
		Name: &name,
		Tags: tags,
		Variants: []domain.VariantUpdate{
			{VariantInput: domain.VariantInput{Pack: "1kg", Price: decimal.NewFromInt(700), Stock: 1}},
			{ID: kept, VariantInput: domain.VariantInput{Pack: "100g", Price: decimal.NewFromInt(110), Stock: 9}},
		},
	}.Apply(p))
	require.NoError(t, repo.UpdateProduct(ctx, p))

	got, err := repo.GetProduct(ctx, "royal-garam-masala")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, tags, got.Tags)
	require.Len(t, got.Variants, 2)
	assert.Equal(t, "1kg", got.Variants[0].Pack, "variant order follows the update")
	assert.Equal(t, kept, got.Variants[1].ID)
	assert.Equal(t, 9, got.Variants[1].Stock)
	assert.True(t, got.Variants[1].Price.Equal(decimal.NewFromInt(110)))

	_, err = repo.FindVariant(ctx, p.ID, dropped)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	t.Run("slug taken", func(t *testing.T) {
		other := seedProduct(t, repo, "Chaat Masala")
		require.NoError(t, domain.UpdateProductRequest{Name: &name}.Apply(other))
		assert.ErrorIs(t, repo.UpdateProduct(ctx, other), domain.ErrConflict)

		unchanged, err := repo.GetProduct(ctx, other.ID)
		require.NoError(t, err)
		assert.Equal(t, "chaat-masala", unchanged.Slug)
	})

	t.Run("missing", func(t *testing.T) {
		ghost := domain.NewProduct(domain.CreateProductRequest{
			Name: "Ghost", CategoryID: "spices",
			Variants: []domain.VariantInput{{Pack: "50g", Price: decimal.NewFromInt(10)}},
		})
		assert.ErrorIs(t, repo.UpdateProduct(ctx, ghost), domain.ErrNotFound)
	})
}

func TestDeleteProduct(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	p := seedProduct(t, repo, "Sambar Masala")
	keep := seedProduct(t, repo, "Rasam Masala")

	require.NoError(t, repo.DeleteProduct(ctx, p.ID))

	_, err := repo.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = repo.FindVariant(ctx, p.ID, p.Variants[0].ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	n, err := repo.CountProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = repo.GetProduct(ctx, keep.ID)
	assert.NoError(t, err)

	assert.ErrorIs(t, repo.DeleteProduct(ctx, p.ID), domain.ErrNotFound)
}
