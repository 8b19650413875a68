package handlers

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jsm-masala/storefront/internal/domain"
	"github.com/jsm-masala/storefront/internal/service"
	sharedHTTP "github.com/jsm-masala/storefront/pkg/http"
	"github.com/shopspring/decimal"
)

type ProductHandler struct {
	catalog *service.CatalogService
	log     *slog.Logger
}

func NewProductHandler(catalog *service.CatalogService, log *slog.Logger) *ProductHandler {
	return &ProductHandler{catalog: catalog, log: log}
}

// ListProducts accepts category, featured, search, price (as "min-max"),
// sort, page and limit query parameters.
func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	f := domain.ProductFilter{
		CategoryID: strings.TrimSpace(c.Query("category")),
		Featured:   c.QueryBool("featured", false),
		Search:     strings.TrimSpace(c.Query("search")),
		Sort:       c.Query("sort"),
		Page:       c.QueryInt("page", 1),
		Limit:      c.QueryInt("limit", 12),
	}

	if price := c.Query("price"); price != "" {
		lo, hi, err := parsePriceRange(price)
		if err != nil {
			return sharedHTTP.BadRequestResponse(c, "Invalid price range", map[string]interface{}{
				"price": price,
			})
		}
		f.MinPrice, f.MaxPrice = lo, hi
	}

	products, meta, err := h.catalog.ListProducts(c.UserContext(), f)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return sharedHTTP.PagedResponse(c, "Products retrieved successfully", products, meta)
}

// parsePriceRange reads "min-max"; either side may be empty.
func parsePriceRange(s string) (lo, hi *decimal.Decimal, err error) {
	minStr, maxStr, ok := strings.Cut(s, "-")
	if !ok {
		return nil, nil, fmt.Errorf("price range %q has no separator", s)
	}
	if minStr = strings.TrimSpace(minStr); minStr != "" {
		v, err := decimal.NewFromString(minStr)
		if err != nil {
			return nil, nil, err
		}
		lo = &v
	}
	if maxStr = strings.TrimSpace(maxStr); maxStr != "" {
		v, err := decimal.NewFromString(maxStr)
		if err != nil {
			return nil, nil, err
		}
		hi = &v
	}
	return lo, hi, nil
}

func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	product, err := h.catalog.GetProduct(c.UserContext(), c.Params("idOrSlug"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return sharedHTTP.SuccessResponse(c, "Product retrieved successfully", product)
}

func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var request domain.CreateProductRequest
	if err := c.BodyParser(&request); err != nil {
		return sharedHTTP.BadRequestResponse(c, "Invalid request body", map[string]interface{}{
			"parse_error": err.Error(),
		})
	}

	product, err := h.catalog.CreateProduct(c.UserContext(), request)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return sharedHTTP.CreatedResponse(c, "Product created successfully", product)
}

func (h *ProductHandler) SetVariantStock(c *fiber.Ctx) error {
	var request SetStockRequest
	if err := c.BodyParser(&request); err != nil {
		return sharedHTTP.BadRequestResponse(c, "Invalid request body", map[string]interface{}{
			"parse_error": err.Error(),
		})
	}
	if request.Stock == nil {
		return sharedHTTP.BadRequestResponse(c, "Stock is required", nil)
	}

	product, err := h.catalog.SetVariantStock(c.UserContext(), c.Params("id"), c.Params("variantId"), *request.Stock)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return sharedHTTP.SuccessResponse(c, "Stock updated to "+strconv.Itoa(*request.Stock), product)
}

func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	var request domain.UpdateProductRequest
	if err := c.BodyParser(&request); err != nil {
		return sharedHTTP.BadRequestResponse(c, "Invalid request body", map[string]interface{}{
			"parse_error": err.Error(),
		})
	}

	product, err := h.catalog.UpdateProduct(c.UserContext(), c.Params("id"), request)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return sharedHTTP.SuccessResponse(c, "Product updated successfully", product)
}

func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.catalog.DeleteProduct(c.UserContext(), id); err != nil {
		return respondError(c, h.log, err)
	}
	return sharedHTTP.SuccessResponse(c, "Product deleted successfully", fiber.Map{"id": id})
}
