// Package tenantlock serializes quota-checked writes of a single tenant.
package tenantlock

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/CertFox/internal/pkg/env"
)

// Locker grants exclusive per-tenant scopes. Lock blocks until the scope is free or
// ctx is done; the returned func releases it.
type Locker interface {
	Lock(ctx context.Context, tenantID uint) (unlock func(), err error)
}

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config selects the lock backend.
type Config struct {
	Backend string
	TTL     time.Duration
}

// LoadConfig reads TENANT_LOCK_BACKEND and TENANT_LOCK_TTL.
func LoadConfig() Config {
	return Config{
		Backend: strings.ToLower(env.GetEnv("TENANT_LOCK_BACKEND", BackendMemory)),
		TTL:     env.GetEnvDuration("TENANT_LOCK_TTL", 30*time.Second),
	}
}

// New builds the configured locker. The redis backend needs a client.
func New(cfg Config, client *redis.Client) Locker {
	if cfg.Backend == BackendRedis && client != nil {
		return NewRedisLocker(client, cfg.TTL)
	}
	return NewMemoryLocker()
}

// WithLock runs fn while holding the tenant's scope.
func WithLock(ctx context.Context, l Locker, tenantID uint, fn func() error) error {
	unlock, err := l.Lock(ctx, tenantID)
	if err != nil {
		return err
	}
	defer unlock()
	return fn()
}
