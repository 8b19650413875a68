package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jsm-masala/storefront/internal/domain"
	sharedHTTP "github.com/jsm-masala/storefront/pkg/http"
)

// Identity headers set by the authenticating gateway in front of the API.
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserRole  = "X-User-Role"
	HeaderUserName  = "X-User-Name"
	HeaderUserEmail = "X-User-Email"
)

const identityKey = "identity"

// Authenticate trusts the gateway headers and stores the caller's identity
// on the request.
func Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := strings.TrimSpace(c.Get(HeaderUserID))
		if userID == "" {
			return sharedHTTP.UnauthorizedResponse(c, "Not authorized, no user identity")
		}

		c.Locals(identityKey, domain.Identity{
			UserID: userID,
			Role:   strings.ToLower(strings.TrimSpace(c.Get(HeaderUserRole))),
			Name:   strings.TrimSpace(c.Get(HeaderUserName)),
			Email:  strings.TrimSpace(c.Get(HeaderUserEmail)),
		})
		return c.Next()
	}
}

// RequireAdmin must run after Authenticate.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !identity(c).IsAdmin() {
			return sharedHTTP.ForbiddenResponse(c, "Not authorized as an admin")
		}
		return c.Next()
	}
}

func identity(c *fiber.Ctx) domain.Identity {
	id, _ := c.Locals(identityKey).(domain.Identity)
	return id
}
