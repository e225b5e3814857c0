package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"

	"github.com/ManuelReschke/CertFox/internal/pkg/env"
)

// AdminConfig holds the operator credentials for the admin API.
type AdminConfig struct {
	User     string
	Password string
}

func LoadAdminConfig() AdminConfig {
	return AdminConfig{
		User:     env.GetEnv("ADMIN_USER", "admin"),
		Password: env.GetEnv("ADMIN_PASSWORD", ""),
	}
}

// RequireAdmin guards operator routes with HTTP basic auth. Without a configured
// password the admin API answers 503.
func RequireAdmin(cfg AdminConfig) fiber.Handler {
	if cfg.Password == "" {
		return func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "admin_disabled", "message": "ADMIN_PASSWORD is not set"})
		}
	}
	return basicauth.New(basicauth.Config{
		Realm: "CertFox Admin",
		Authorizer: func(user, pass string) bool {
			userOK := subtle.ConstantTimeCompare([]byte(user), []byte(cfg.User)) == 1
			passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(cfg.Password)) == 1
			return userOK && passOK
		},
		Unauthorized: func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderWWWAuthenticate, `basic realm="CertFox Admin"`)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Admin credentials required"})
		},
	})
}
