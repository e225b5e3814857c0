package router

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/ManuelReschke/CertFox/internal/pkg/metrics"
)

// HealthCheck checks one dependency.
type HealthCheck func(ctx context.Context) error

// SystemRouter serves health and Prometheus endpoints.
type SystemRouter struct {
	checks map[string]HealthCheck
}

func (h SystemRouter) InstallRouter(app *fiber.App) {
	metrics.Init()
	app.Get("/health", h.health)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
}

func (h SystemRouter) health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := "ok"
	components := make(fiber.Map, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			log.Warnf("[Health] %s unhealthy: %v", name, err)
			components[name] = err.Error()
			status = "degraded"
			continue
		}
		components[name] = "ok"
	}

	code := fiber.StatusOK
	if status != "ok" {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{"status": status, "components": components})
}

func NewSystemRouter(checks map[string]HealthCheck) *SystemRouter {
	return &SystemRouter{checks: checks}
}
