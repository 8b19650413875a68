package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/jsm-masala/storefront/internal/domain"
	sharedHTTP "github.com/jsm-masala/storefront/pkg/http"
)

// respondError maps domain errors onto the response envelope. Anything
// unclassified is logged and reported as a generic 500.
func respondError(c *fiber.Ctx, log *slog.Logger, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidShippingAddress),
		errors.Is(err, domain.ErrInvalidPaymentMethod),
		errors.Is(err, domain.ErrInvalidStatus):
		return sharedHTTP.ErrorResponse(c, fiber.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	case errors.Is(err, domain.ErrInsufficientStock):
		return sharedHTTP.ErrorResponse(c, fiber.StatusBadRequest, "INSUFFICIENT_STOCK", err.Error(), nil)
	case errors.Is(err, domain.ErrEmptyCart):
		return sharedHTTP.ErrorResponse(c, fiber.StatusBadRequest, "EMPTY_CART", err.Error(), nil)
	case errors.Is(err, domain.ErrNotFound):
		return sharedHTTP.NotFoundResponse(c, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return sharedHTTP.ConflictResponse(c, err.Error(), nil)
	case errors.Is(err, domain.ErrForbidden):
		return sharedHTTP.ForbiddenResponse(c, err.Error())
	}

	log.Error("request failed", "method", c.Method(), "path", c.Path(), "err", err)
	return sharedHTTP.InternalServerErrorResponse(c, "Internal server error", nil)
}

// ErrorHandler is the Fiber fallback for errors no handler turned into a
// response, including unknown routes and recovered panics.
func ErrorHandler(log *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code := "INTERNAL_SERVER_ERROR"
			switch fe.Code {
			case fiber.StatusNotFound:
				code = "NOT_FOUND"
			case fiber.StatusMethodNotAllowed:
				code = "METHOD_NOT_ALLOWED"
			case fiber.StatusBadRequest:
				code = "BAD_REQUEST"
			}
			if fe.Code >= fiber.StatusInternalServerError {
				log.Error("request failed", "method", c.Method(), "path", c.Path(), "err", err)
			}
			return sharedHTTP.ErrorResponse(c, fe.Code, code, fe.Message, nil)
		}
		return respondError(c, log, err)
	}
}
