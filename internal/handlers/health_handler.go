package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	sharedHTTP "github.com/jsm-masala/storefront/pkg/http"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	service string
	db      Pinger
	broker  func() bool
}

func NewHealthHandler(service string, db Pinger) *HealthHandler {
	return &HealthHandler{service: service, db: db}
}

// WithBroker adds a message broker connectivity check.
func (h *HealthHandler) WithBroker(connected func() bool) *HealthHandler {
	h.broker = connected
	return h
}

func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		return sharedHTTP.ErrorResponse(c, fiber.StatusServiceUnavailable, "UNHEALTHY", "Database unreachable", map[string]interface{}{
			"service": h.service,
		})
	}
	if h.broker != nil && !h.broker() {
		return sharedHTTP.ErrorResponse(c, fiber.StatusServiceUnavailable, "UNHEALTHY", "Message broker unreachable", map[string]interface{}{
			"service": h.service,
		})
	}
	return sharedHTTP.SuccessResponse(c, h.service+" is healthy", map[string]interface{}{
		"service": h.service,
		"status":  "healthy",
	})
}
