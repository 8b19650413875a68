package handlers

import (
	"github.com/gofiber/fiber/v2"
	sharedHTTP "github.com/jsm-masala/storefront/pkg/http"
)

type StorefrontHandlers struct {
	Health   *HealthHandler
	Products *ProductHandler
	Carts    *CartHandler
	Orders   *OrderHandler
	Admin    *AdminHandler
}

func RegisterStorefrontRoutes(app *fiber.App, h StorefrontHandlers) {
	api := app.Group("/api/v1")
	api.Get("/health", h.Health.HealthCheck)

	products := api.Group("/products")
	products.Get("/", h.Products.ListProducts)
	products.Get("/:idOrSlug", h.Products.GetProduct)
	products.Post("/", Authenticate(), RequireAdmin(), h.Products.CreateProduct)
	products.Put("/:id", Authenticate(), RequireAdmin(), h.Products.UpdateProduct)
	products.Delete("/:id", Authenticate(), RequireAdmin(), h.Products.DeleteProduct)
	products.Put("/:id/variants/:variantId/stock", Authenticate(), RequireAdmin(), h.Products.SetVariantStock)

	cart := api.Group("/cart", Authenticate())
	cart.Get("/", h.Carts.GetCart)
	cart.Post("/", h.Carts.AddItem)
	cart.Delete("/", h.Carts.ClearCart)
	cart.Put("/:variantId", h.Carts.UpdateItem)
	cart.Delete("/:variantId", h.Carts.RemoveItem)

	orders := api.Group("/orders", Authenticate())
	orders.Post("/", h.Orders.PlaceOrder)
	orders.Get("/myorders", h.Orders.MyOrders)
	orders.Get("/", RequireAdmin(), h.Orders.ListOrders)
	orders.Get("/:id", h.Orders.GetOrder)
	orders.Put("/:id/status", RequireAdmin(), h.Orders.UpdateStatus)

	admin := api.Group("/admin", Authenticate(), RequireAdmin())
	admin.Get("/stats", h.Admin.DashboardStats)

	app.Use(notFound)
}

func RegisterNotifierRoutes(app *fiber.App, health *HealthHandler, notifications *NotificationHandler) {
	api := app.Group("/api/v1")
	api.Get("/health", health.HealthCheck)
	api.Get("/notifications/order/:orderId", notifications.GetNotificationsByOrderID)

	app.Use(notFound)
}

func notFound(c *fiber.Ctx) error {
	return sharedHTTP.NotFoundResponse(c, "Route not found")
}
