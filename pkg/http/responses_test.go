package http

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, body io.Reader) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp
}

func TestEnvelopes(t *testing.T) {
	app := fiber.New()
	app.Get("/ok", func(c *fiber.Ctx) error { return SuccessResponse(c, "fine", fiber.Map{"a": 1}) })
	app.Get("/forbidden", func(c *fiber.Ctx) error { return ForbiddenResponse(c, "admins only") })
	app.Get("/conflict", func(c *fiber.Ctx) error {
		return ConflictResponse(c, "dup", map[string]interface{}{"slug": "x"})
	})

	t.Run("success echoes request id", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/ok", nil)
		req.Header.Set(RequestIDHeader, "req-1")
		res, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, res.StatusCode)

		body := decode(t, res.Body)
		assert.True(t, body.Success)
		assert.Equal(t, "req-1", body.RequestID)
		assert.Nil(t, body.Error)
	})

	t.Run("error carries code", func(t *testing.T) {
		res, err := app.Test(httptest.NewRequest("GET", "/forbidden", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusForbidden, res.StatusCode)

		body := decode(t, res.Body)
		assert.False(t, body.Success)
		require.NotNil(t, body.Error)
		assert.Equal(t, "FORBIDDEN", body.Error.Code)
		assert.NotEmpty(t, body.RequestID)
		assert.Equal(t, body.RequestID, res.Header.Get(RequestIDHeader))
	})

	t.Run("conflict details", func(t *testing.T) {
		res, err := app.Test(httptest.NewRequest("GET", "/conflict", nil))
		require.NoError(t, err)
		body := decode(t, res.Body)
		assert.Equal(t, fiber.StatusConflict, res.StatusCode)
		assert.Equal(t, "x", body.Error.Details["slug"])
	})
}
