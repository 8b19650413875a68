package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jsm-masala/storefront/internal/domain"
)

// CartService mutates carts with read-modify-write against the store.
// Two concurrent writers for one user resolve last-write-wins.
type CartService struct {
	carts    CartStore
	products ProductStore
	log      *slog.Logger
}

func NewCartService(carts CartStore, products ProductStore, log *slog.Logger) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		log:      log.With("component", "cart"),
	}
}

func (s *CartService) GetCart(ctx context.Context, userID string) (domain.CartView, error) {
	cart, err := s.carts.GetCart(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.EmptyCartView(userID), nil
	}
	if err != nil {
		return domain.CartView{}, err
	}
	return cart.View(), nil
}

// AddItem merges into an existing line for the same product and variant.
// The line keeps the price captured when it was first added.
func (s *CartService) AddItem(ctx context.Context, userID, productID, variantID string, qty int) (domain.CartView, error) {
	if qty < 1 {
		return domain.CartView{}, fmt.Errorf("%w: quantity must be at least 1", domain.ErrInvalidInput)
	}

	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return domain.CartView{}, err
	}
	variant, ok := product.Variant(variantID)
	if !ok {
		return domain.CartView{}, fmt.Errorf("%w: variant %s of product %s", domain.ErrNotFound, variantID, product.ID)
	}

	cart, err := s.carts.GetCart(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		cart = domain.NewCart(userID)
	} else if err != nil {
		return domain.CartView{}, err
	}

	if idx := cart.Line(product.ID, variant.ID); idx >= 0 {
		want := cart.Items[idx].Quantity + qty
		if variant.Stock < want {
			return domain.CartView{}, fmt.Errorf("%w: only %d of %s (%s) available, cart would hold %d",
				domain.ErrInsufficientStock, variant.Stock, product.Name, variant.Pack, want)
		}
		cart.Items[idx].Quantity = want
	} else {
		if variant.Stock < qty {
			return domain.CartView{}, fmt.Errorf("%w: only %d of %s (%s) available",
				domain.ErrInsufficientStock, variant.Stock, product.Name, variant.Pack)
		}
		cart.Items = append(cart.Items, domain.CartLine{
			ProductID: product.ID,
			VariantID: variant.ID,
			Quantity:  qty,
			Price:     variant.Price,
			Name:      product.Name,
			Pack:      variant.Pack,
			Image:     product.PrimaryImage(),
		})
	}

	if err := s.carts.SaveCart(ctx, cart); err != nil {
		return domain.CartView{}, err
	}
	return cart.View(), nil
}

// UpdateItemQuantity sets an absolute quantity. If the product or variant
// has since been deleted the line is dropped and NotFound returned.
func (s *CartService) UpdateItemQuantity(ctx context.Context, userID, variantID string, qty int) (domain.CartView, error) {
	if qty < 1 {
		return domain.CartView{}, fmt.Errorf("%w: quantity must be at least 1", domain.ErrInvalidInput)
	}

	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return domain.CartView{}, err
	}
	idx := cart.LineByVariant(variantID)
	if idx < 0 {
		return domain.CartView{}, fmt.Errorf("%w: item %s not in cart", domain.ErrNotFound, variantID)
	}

	line := cart.Items[idx]
	variant, err := s.products.FindVariant(ctx, line.ProductID, variantID)
	if errors.Is(err, domain.ErrNotFound) {
		cart.RemoveAt(idx)
		if saveErr := s.carts.SaveCart(ctx, cart); saveErr != nil {
			return domain.CartView{}, saveErr
		}
		s.log.Info("dropped cart line for missing product", "user_id", userID, "product_id", line.ProductID, "variant_id", variantID)
		return domain.CartView{}, fmt.Errorf("%w: product no longer available, item removed", domain.ErrNotFound)
	}
	if err != nil {
		return domain.CartView{}, err
	}

	if variant.Stock < qty {
		return domain.CartView{}, fmt.Errorf("%w: only %d of %s (%s) available",
			domain.ErrInsufficientStock, variant.Stock, line.Name, line.Pack)
	}

	cart.Items[idx].Quantity = qty
	if err := s.carts.SaveCart(ctx, cart); err != nil {
		return domain.CartView{}, err
	}
	return cart.View(), nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID, variantID string) (domain.CartView, error) {
	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return domain.CartView{}, err
	}
	idx := cart.LineByVariant(variantID)
	if idx < 0 {
		return domain.CartView{}, fmt.Errorf("%w: item %s not in cart", domain.ErrNotFound, variantID)
	}

	cart.RemoveAt(idx)
	if err := s.carts.SaveCart(ctx, cart); err != nil {
		return domain.CartView{}, err
	}
	return cart.View(), nil
}

// ClearCart empties the cart. Clearing a missing or empty cart succeeds.
func (s *CartService) ClearCart(ctx context.Context, userID string) (domain.CartView, error) {
	cart, err := s.carts.GetCart(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.EmptyCartView(userID), nil
	}
	if err != nil {
		return domain.CartView{}, err
	}

	cart.Items = []domain.CartLine{}
	if err := s.carts.SaveCart(ctx, cart); err != nil {
		return domain.CartView{}, err
	}
	return cart.View(), nil
}
