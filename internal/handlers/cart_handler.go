package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/jsm-masala/storefront/internal/service"
	sharedHTTP "github.com/jsm-masala/storefront/pkg/http"
)

type CartHandler struct {
	carts *service.CartService
	log   *slog.Logger
}

func NewCartHandler(carts *service.CartService, log *slog.Logger) *CartHandler {
	return &CartHandler{carts: carts, log: log}
}

func (h *CartHandler) GetCart(c *fiber.Ctx) error {
	view, err := h.carts.GetCart(c.UserContext(), identity(c).UserID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return sharedHTTP.SuccessResponse(c, "Cart retrieved successfully", view)
}

func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	var request AddToCartRequest
	if err := c.BodyParser(&request); err != nil {
		return sharedHTTP.BadRequestResponse(c, "Invalid request body", map[string]interface{}{
			"parse_error": err.Error(),
		})
	}
	if request.ProductID == "" || request.VariantID == "" {
		return sharedHTTP.BadRequestResponse(c, "productId and variantId are required", nil)
	}

	view, err := h.carts.AddItem(c.UserContext(), identity(c).UserID, request.ProductID, request.VariantID, request.Quantity)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return sharedHTTP.SuccessResponse(c, "Item added to cart", view)
}

func (h *CartHandler) UpdateItem(c *fiber.Ctx) error {
	var request UpdateCartItemRequest
	if err := c.BodyParser(&request); err != nil {
		return sharedHTTP.BadRequestResponse(c, "Invalid request body", map[string]interface{}{
			"parse_error": err.Error(),
		})
	}

	view, err := h.carts.UpdateItemQuantity(c.UserContext(), identity(c).UserID, c.Params("variantId"), request.Quantity)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return sharedHTTP.SuccessResponse(c, "Cart item updated", view)
}

func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	view, err := h.carts.RemoveItem(c.UserContext(), identity(c).UserID, c.Params("variantId"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return sharedHTTP.SuccessResponse(c, "Item removed from cart", view)
}

func (h *CartHandler) ClearCart(c *fiber.Ctx) error {
	view, err := h.carts.ClearCart(c.UserContext(), identity(c).UserID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return sharedHTTP.SuccessResponse(c, "Cart cleared", view)
}
