package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/CertFox/app/controllers"
	"github.com/ManuelReschke/CertFox/internal/pkg/middleware"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// Options configures the installed routes.
type Options struct {
	// RateLimit is the number of API requests allowed per client and minute. Zero disables it.
	RateLimit int
	// LimiterStorage keeps limiter counters. Nil uses fiber's in-memory storage.
	LimiterStorage fiber.Storage
	Admin          middleware.AdminConfig
	HealthChecks   map[string]HealthCheck
}

func InstallRouter(app *fiber.App, api *controllers.API, auth middleware.Authenticator, opts Options) {
	setup(app,
		NewSystemRouter(opts.HealthChecks),
		NewApiRouter(api, auth, opts),
		NewAdminRouter(api, opts.Admin),
	)
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
