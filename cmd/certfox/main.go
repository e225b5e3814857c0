package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ManuelReschke/CertFox/app/controllers"
	"github.com/ManuelReschke/CertFox/app/repository"
	"github.com/ManuelReschke/CertFox/internal/pkg/artifactstore"
	"github.com/ManuelReschke/CertFox/internal/pkg/billing"
	"github.com/ManuelReschke/CertFox/internal/pkg/cache"
	"github.com/ManuelReschke/CertFox/internal/pkg/certificate"
	"github.com/ManuelReschke/CertFox/internal/pkg/database"
	"github.com/ManuelReschke/CertFox/internal/pkg/env"
	"github.com/ManuelReschke/CertFox/internal/pkg/issuance"
	"github.com/ManuelReschke/CertFox/internal/pkg/jobqueue"
	"github.com/ManuelReschke/CertFox/internal/pkg/library"
	"github.com/ManuelReschke/CertFox/internal/pkg/middleware"
	"github.com/ManuelReschke/CertFox/internal/pkg/quota"
	"github.com/ManuelReschke/CertFox/internal/pkg/renderer"
	"github.com/ManuelReschke/CertFox/internal/pkg/router"
	"github.com/ManuelReschke/CertFox/internal/pkg/tenantlock"
	"github.com/ManuelReschke/CertFox/internal/pkg/tenants"
)

func main() {
	app, queue := NewApplication()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info("[CertFox] shutting down")
		if queue != nil {
			queue.Stop()
		}
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Errorf("[CertFox] shutdown: %v", err)
		}
	}()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	if err != nil {
		log.Fatal(err)
	}
}

func NewApplication() (*fiber.App, *jobqueue.Queue) {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	repository.InitializeFactory(database.GetDB())
	repos := repository.GetGlobalRepositories()

	resolver := quota.NewResolver(repos, nil)
	billingService := billing.NewService(repos, resolver)
	if err := billingService.SeedCatalog(context.Background()); err != nil {
		log.Fatalf("[CertFox] seeding plan catalog: %v", err)
	}

	artifactCfg, err := artifactstore.LoadConfig()
	if err != nil {
		log.Fatalf("[CertFox] artifact store config: %v", err)
	}
	archive, err := artifactstore.New(artifactCfg)
	if err != nil {
		log.Fatalf("[CertFox] artifact store: %v", err)
	}

	var preview renderer.Renderer
	if env.GetEnvBool("PREVIEWS_ENABLED", true) {
		preview = renderer.NewImagingRenderer(renderer.LoadConfig())
	}

	locker := tenantlock.New(tenantlock.LoadConfig(), cache.GetClient())
	certs := certificate.NewService(repos, resolver, locker, archive)
	orchestrator := issuance.NewOrchestrator(repos.Design, certs, preview)
	tenantService := tenants.NewService(repos, billingService)

	queue := jobqueue.NewQueue(cache.GetClient(), orchestrator, env.GetEnvInt("BATCH_WORKERS", 2))
	queue.Start()

	api := &controllers.API{
		Certificates: certs,
		Batches:      orchestrator,
		Queue:        queue,
		Library:      library.NewService(repos, resolver, locker),
		Billing:      billingService,
		Tenants:      tenantService,
		Resolver:     resolver,
		Renderer:     preview,
	}

	app := fiber.New(fiber.Config{
		AppName:   "CertFox",
		BodyLimit: 32 * 1024 * 1024,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// SWAGGER / OPENAPI
	app.Use(swagger.New(swagger.Config{
		BasePath: "/docs/api/",
		FilePath: env.GetEnv("OPENAPI_FILE", "./docs/openapi.yml"),
		Path:     "v1",
	}))

	opts := router.Options{
		RateLimit: env.GetEnvInt("API_RATE_LIMIT", 120),
		Admin:     middleware.LoadAdminConfig(),
		HealthChecks: map[string]router.HealthCheck{
			"database": func(ctx context.Context) error {
				sqlDB, err := database.GetDB().DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
			"cache": func(ctx context.Context) error {
				return cache.GetClient().Ping(ctx).Err()
			},
		},
	}
	if opts.RateLimit > 0 {
		opts.LimiterStorage = cache.NewLimiterStorage(cache.LoadConfig())
	}
	router.InstallRouter(app, api, tenantService, opts)

	return app, queue
}
