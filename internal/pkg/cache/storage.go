package cache

import (
	"github.com/gofiber/fiber/v2"
	redisstorage "github.com/gofiber/storage/redis"
)

// NewLimiterStorage returns a fiber storage for the API rate limiter. It uses the
// database after the cache's so limiter keys stay apart from locks and jobs.
func NewLimiterStorage(cfg Config) fiber.Storage {
	return redisstorage.New(redisstorage.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Password: cfg.Password,
		Database: cfg.DB + 1,
		Reset:    false,
	})
}
