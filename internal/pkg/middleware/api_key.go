package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/CertFox/app/models"
	"github.com/ManuelReschke/CertFox/internal/pkg/tenantctx"
	"github.com/ManuelReschke/CertFox/internal/pkg/tenants"
)

// Authenticator resolves a raw API key to its tenant.
type Authenticator interface {
	Authenticate(ctx context.Context, rawKey string) (*models.Tenant, error)
}

// APIKeyAuthMiddleware authenticates requests carrying a tenant API key header.
func APIKeyAuthMiddleware(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		apiKey := extractAPIKeyFromHeader(c)
		if apiKey == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing API key"})
		}

		tenant, err := auth.Authenticate(c.UserContext(), apiKey)
		switch {
		case err == nil:
		case errors.Is(err, tenants.ErrInvalidCredentials):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid API key"})
		case errors.Is(err, tenants.ErrTenantDisabled):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Tenant disabled"})
		default:
			log.Errorf("[APIKey] lookup failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "API key verification failed"})
		}

		tenantctx.Set(c, tenantctx.TenantContext{
			TenantID:      tenant.ID,
			Name:          tenant.Name,
			Authenticated: true,
		})
		return c.Next()
	}
}

func extractAPIKeyFromHeader(c *fiber.Ctx) string {
	apiKey := strings.TrimSpace(c.Get("X-API-Key"))
	if apiKey != "" {
		return apiKey
	}
	auth := strings.TrimSpace(c.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
