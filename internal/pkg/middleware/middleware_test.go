package middleware

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/CertFox/app/models"
	"github.com/ManuelReschke/CertFox/internal/pkg/tenantctx"
	"github.com/ManuelReschke/CertFox/internal/pkg/tenants"
)

type fakeAuth map[string]error

func (f fakeAuth) Authenticate(_ context.Context, rawKey string) (*models.Tenant, error) {
	if err, ok := f[rawKey]; ok {
		if err != nil {
			return nil, err
		}
		return &models.Tenant{ID: 42, Name: "Acme"}, nil
	}
	return nil, tenants.ErrInvalidCredentials
}

func newAPIKeyApp() *fiber.App {
	app := fiber.New()
	auth := fakeAuth{
		"good":     nil,
		"disabled": tenants.ErrTenantDisabled,
		"broken":   errors.New("db down"),
	}
	app.Get("/", APIKeyAuthMiddleware(auth), func(c *fiber.Ctx) error {
		return c.JSON(tenantctx.Get(c))
	})
	return app
}

func TestAPIKeyAuthMiddleware(t *testing.T) {
	app := newAPIKeyApp()

	cases := []struct {
		name   string
		header string
		value  string
		status int
	}{
		{"missing", "", "", fiber.StatusUnauthorized},
		{"x-api-key", "X-API-Key", "good", fiber.StatusOK},
		{"bearer", "Authorization", "Bearer good", fiber.StatusOK},
		{"unknown", "X-API-Key", "nope", fiber.StatusUnauthorized},
		{"disabled", "X-API-Key", "disabled", fiber.StatusForbidden},
		{"lookup error", "X-API-Key", "broken", fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tc.header != "" {
				req.Header.Set(tc.header, tc.value)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	app := fiber.New()
	app.Get("/on", RequireAdmin(AdminConfig{User: "ops", Password: "s3cret"}), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	app.Get("/off", RequireAdmin(AdminConfig{User: "ops"}), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	req := httptest.NewRequest("GET", "/on", nil)
	req.SetBasicAuth("ops", "s3cret")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	req = httptest.NewRequest("GET", "/on", nil)
	req.SetBasicAuth("ops", "wrong")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/off", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}
