package router

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/CertFox/app/controllers"
	"github.com/ManuelReschke/CertFox/app/repository"
	"github.com/ManuelReschke/CertFox/internal/pkg/billing"
	"github.com/ManuelReschke/CertFox/internal/pkg/middleware"
	"github.com/ManuelReschke/CertFox/internal/pkg/quota"
	"github.com/ManuelReschke/CertFox/internal/pkg/tenants"
	"github.com/ManuelReschke/CertFox/internal/pkg/testutil"
)

func newTestApp(t *testing.T, opts Options) *fiber.App {
	t.Helper()
	repos := repository.NewRepositories(testutil.NewTestDB(t))
	resolver := quota.NewResolver(repos, nil)
	billingService := billing.NewService(repos, resolver)
	tenantService := tenants.NewService(repos, billingService)

	app := fiber.New()
	InstallRouter(app, &controllers.API{
		Billing:  billingService,
		Tenants:  tenantService,
		Resolver: resolver,
	}, tenantService, opts)
	return app
}

func get(t *testing.T, app *fiber.App, path string) (int, string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestRoutes(t *testing.T) {
	app := newTestApp(t, Options{})

	status, body := get(t, app, "/health")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, "ok")

	status, body = get(t, app, "/api/v1/plans")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, `"id":"free"`)

	status, _ = get(t, app, "/api/v1/usage")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, body = get(t, app, "/metrics")
	assert.Equal(t, fiber.StatusOK, status)
	assert.True(t, strings.Contains(body, "go_goroutines") || strings.Contains(body, "certfox_"))

	resp, err := app.Test(httptest.NewRequest("POST", "/admin/api/tenants", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestAdminCreatesTenant(t *testing.T) {
	app := newTestApp(t, Options{Admin: middleware.AdminConfig{User: "ops", Password: "pw"}})

	req := httptest.NewRequest("POST", "/admin/api/tenants", strings.NewReader(
		`{"name":"Acme","email":"ops@acme.test","password":"secret-pass","plan_id":"starter"}`))
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth("ops", "pw")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(body))
	assert.Contains(t, string(body), `"api_key":"cfx_`)
	assert.Contains(t, string(body), `"direction":"upgrade"`)
}

func TestRateLimit(t *testing.T) {
	app := newTestApp(t, Options{RateLimit: 2})

	for i := 0; i < 2; i++ {
		status, _ := get(t, app, "/api/v1/plans")
		require.Equal(t, fiber.StatusOK, status)
	}
	status, body := get(t, app, "/api/v1/plans")
	assert.Equal(t, fiber.StatusTooManyRequests, status)
	assert.Contains(t, body, "rate_limited")
}

func TestHealthReportsFailingComponent(t *testing.T) {
	app := newTestApp(t, Options{HealthChecks: map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
		"cache":    func(context.Context) error { return errors.New("connection refused") },
	}})

	status, body := get(t, app, "/health")
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Contains(t, body, `"status":"degraded"`)
	assert.Contains(t, body, `"database":"ok"`)
	assert.Contains(t, body, "connection refused")
}
