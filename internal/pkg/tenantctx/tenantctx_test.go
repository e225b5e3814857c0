package tenantctx

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndGet(t *testing.T) {
	app := fiber.New()
	app.Get("/anon", func(c *fiber.Ctx) error {
		tc := Get(c)
		assert.False(t, tc.Authenticated)
		assert.Zero(t, TenantID(c))
		return c.SendString("ok")
	})
	app.Get("/tenant", func(c *fiber.Ctx) error {
		Set(c, TenantContext{TenantID: 7, Name: "Acme", Authenticated: true})
		assert.Equal(t, uint(7), TenantID(c))
		assert.Equal(t, uint(7), c.Locals(KeyTenantID))
		return c.SendString(Get(c).Name)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/anon", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/tenant", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "Acme", string(body))
}
