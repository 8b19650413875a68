package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/jsm-masala/storefront/internal/service"
	sharedHTTP "github.com/jsm-masala/storefront/pkg/http"
)

type OrderHandler struct {
	orders *service.OrderService
	log    *slog.Logger
}

func NewOrderHandler(orders *service.OrderService, log *slog.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, log: log}
}

func (h *OrderHandler) PlaceOrder(c *fiber.Ctx) error {
	var request PlaceOrderRequest
	if err := c.BodyParser(&request); err != nil {
		return sharedHTTP.BadRequestResponse(c, "Invalid request body", map[string]interface{}{
			"parse_error": err.Error(),
		})
	}

	order, err := h.orders.PlaceOrder(c.UserContext(), identity(c), request.toDomain())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return sharedHTTP.CreatedResponse(c, "Order placed successfully", order)
}

func (h *OrderHandler) MyOrders(c *fiber.Ctx) error {
	orders, err := h.orders.MyOrders(c.UserContext(), identity(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return sharedHTTP.SuccessResponse(c, "Orders retrieved successfully", orders)
}

// GetOrder accepts either the internal id or the order number.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	order, err := h.orders.GetOrder(c.UserContext(), identity(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return sharedHTTP.SuccessResponse(c, "Order retrieved successfully", order)
}

func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	orders, err := h.orders.ListOrders(c.UserContext(), c.QueryInt("page", 1), c.QueryInt("limit", 50))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return sharedHTTP.SuccessResponse(c, "Orders retrieved successfully", orders)
}

func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	var request UpdateStatusRequest
	if err := c.BodyParser(&request); err != nil {
		return sharedHTTP.BadRequestResponse(c, "Invalid request body", map[string]interface{}{
			"parse_error": err.Error(),
		})
	}

	order, err := h.orders.SetStatus(c.UserContext(), c.Params("id"), request.Status)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return sharedHTTP.SuccessResponse(c, "Order status updated", order)
}
