package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/jsm-masala/storefront/internal/service"
	sharedHTTP "github.com/jsm-masala/storefront/pkg/http"
)

type AdminHandler struct {
	stats *service.StatsService
	log   *slog.Logger
}

func NewAdminHandler(stats *service.StatsService, log *slog.Logger) *AdminHandler {
	return &AdminHandler{stats: stats, log: log}
}

func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	stats, err := h.stats.Dashboard(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return sharedHTTP.SuccessResponse(c, "Dashboard stats retrieved successfully", stats)
}
