package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ManuelReschke/CertFox/app/controllers"
	"github.com/ManuelReschke/CertFox/internal/pkg/middleware"
)

type ApiRouter struct {
	api  *controllers.API
	auth middleware.Authenticator
	opts Options
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api")
	if h.opts.RateLimit > 0 {
		api.Use(limiter.New(limiter.Config{
			Max:        h.opts.RateLimit,
			Expiration: time.Minute,
			Storage:    h.opts.LimiterStorage,
			KeyGenerator: func(c *fiber.Ctx) string {
				if key := c.Get("X-API-Key"); key != "" {
					return "key:" + key
				}
				return "ip:" + c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate_limited", "message": "Too many requests"})
			},
		}))
	}
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1")

	// public
	v1.Get("/plans", h.api.HandleListPlans)
	v1.Get("/public/certificates/:id", h.api.HandlePublicCertificate)
	v1.Post("/auth/api-key", h.api.HandleIssueAPIKey)

	// tenant
	t := v1.Group("", middleware.APIKeyAuthMiddleware(h.auth))
	t.Get("/usage", h.api.HandleGetUsage)
	t.Put("/subscription", h.api.HandleChangePlan)

	t.Post("/certificates", h.api.HandleIssueCertificate)
	t.Get("/certificates", h.api.HandleListCertificates)
	t.Patch("/certificates/:id", h.api.HandleEditCertificate)
	t.Post("/certificates/:id/revoke", h.api.HandleRevokeCertificate)
	t.Delete("/certificates/:id", h.api.HandleDeleteCertificate)
	t.Post("/previews", h.api.HandlePreview)

	t.Post("/batches", h.api.HandleIssueBatch)
	t.Get("/batches/:id", h.api.HandleGetBatch)

	t.Post("/designs", h.api.HandleCreateDesign)
	t.Get("/designs", h.api.HandleListDesigns)
	t.Get("/designs/:id", h.api.HandleGetDesign)
	t.Delete("/designs/:id", h.api.HandleDeleteDesign)

	t.Post("/assets", h.api.HandleCreateAsset)
	t.Get("/assets", h.api.HandleListAssets)
	t.Delete("/assets/:id", h.api.HandleDeleteAsset)
}

func NewApiRouter(api *controllers.API, auth middleware.Authenticator, opts Options) *ApiRouter {
	return &ApiRouter{api: api, auth: auth, opts: opts}
}
