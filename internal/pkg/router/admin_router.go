package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/CertFox/app/controllers"
	"github.com/ManuelReschke/CertFox/internal/pkg/middleware"
)

// AdminRouter installs the operator API under /admin/api.
type AdminRouter struct {
	api *controllers.API
	cfg middleware.AdminConfig
}

func (h AdminRouter) InstallRouter(app *fiber.App) {
	admin := app.Group("/admin/api", middleware.RequireAdmin(h.cfg))
	admin.Post("/tenants", h.api.HandleAdminCreateTenant)
	admin.Post("/plans", h.api.HandleAdminCreatePlan)
	admin.Put("/plans/:id", h.api.HandleAdminUpdatePlan)
	admin.Post("/plans/:id/deactivate", h.api.HandleAdminDeactivatePlan)
	admin.Post("/templates", h.api.HandleAdminCreateTemplate)
	admin.Post("/assets", h.api.HandleAdminCreateAsset)
}

func NewAdminRouter(api *controllers.API, cfg middleware.AdminConfig) *AdminRouter {
	return &AdminRouter{api: api, cfg: cfg}
}
