package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jsm-masala/storefront/internal/domain"
)

type CatalogService struct {
	products ProductStore
	log      *slog.Logger
}

func NewCatalogService(products ProductStore, log *slog.Logger) *CatalogService {
	return &CatalogService{
		products: products,
		log:      log.With("component", "catalog"),
	}
}

func (s *CatalogService) ListProducts(ctx context.Context, f domain.ProductFilter) ([]*domain.Product, domain.PageMeta, error) {
	f.Normalize()
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return nil, domain.PageMeta{}, fmt.Errorf("%w: minimum price is above maximum price", domain.ErrInvalidInput)
	}

	products, total, err := s.products.ListProducts(ctx, f)
	if err != nil {
		return nil, domain.PageMeta{}, err
	}
	return products, domain.NewPageMeta(f.Page, f.Limit, total), nil
}

func (s *CatalogService) GetProduct(ctx context.Context, idOrSlug string) (*domain.Product, error) {
	return s.products.GetProduct(ctx, idOrSlug)
}

func (s *CatalogService) CreateProduct(ctx context.Context, req domain.CreateProductRequest) (*domain.Product, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p := domain.NewProduct(req)
	if err := s.products.CreateProduct(ctx, p); err != nil {
		return nil, err
	}

	s.log.Info("product created", "product_id", p.ID, "slug", p.Slug, "variants", len(p.Variants))
	return p, nil
}

// UpdateProduct applies a partial update. Carts holding a removed variant
// drop that line the next time they are repriced.
func (s *CatalogService) UpdateProduct(ctx context.Context, idOrSlug string, req domain.UpdateProductRequest) (*domain.Product, error) {
	p, err := s.products.GetProduct(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}
	if err := req.Apply(p); err != nil {
		return nil, err
	}
	if err := s.products.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}

	s.log.Info("product updated", "product_id", p.ID, "slug", p.Slug, "variants", len(p.Variants))
	return s.products.GetProduct(ctx, p.ID)
}

func (s *CatalogService) DeleteProduct(ctx context.Context, idOrSlug string) error {
	p, err := s.products.GetProduct(ctx, idOrSlug)
	if err != nil {
		return err
	}
	if err := s.products.DeleteProduct(ctx, p.ID); err != nil {
		return err
	}

	s.log.Info("product deleted", "product_id", p.ID, "slug", p.Slug)
	return nil
}

// SetVariantStock sets an absolute stock level and returns the refreshed product.
func (s *CatalogService) SetVariantStock(ctx context.Context, productID, variantID string, stock int) (*domain.Product, error) {
	if stock < 0 {
		return nil, fmt.Errorf("%w: stock cannot be negative", domain.ErrInvalidInput)
	}
	if err := s.products.SetVariantStock(ctx, productID, variantID, stock); err != nil {
		return nil, err
	}

	s.log.Info("variant stock set", "product_id", productID, "variant_id", variantID, "stock", stock)
	return s.products.GetProduct(ctx, productID)
}
