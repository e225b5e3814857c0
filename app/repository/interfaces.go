package repository

import (
	"context"
	"time"

	"github.com/ManuelReschke/CertFox/app/models"
	"gorm.io/gorm"
)

// TenantRepository defines the interface for tenant-related database operations
type TenantRepository interface {
	Create(ctx context.Context, tenant *models.Tenant) error
	GetByID(ctx context.Context, id uint) (*models.Tenant, error)
	GetByEmail(ctx context.Context, email string) (*models.Tenant, error)
	GetByAPIKeyHash(ctx context.Context, hash string) (*models.Tenant, error)
	Update(ctx context.Context, tenant *models.Tenant) error
	TouchAPIKeyUsage(ctx context.Context, id uint, at time.Time) error
}

// PlanRepository defines the interface for the durable plan catalog
type PlanRepository interface {
	GetByID(ctx context.Context, id string) (*models.Plan, error)
	List(ctx context.Context) ([]models.Plan, error)
	ListActive(ctx context.Context) ([]models.Plan, error)
	Save(ctx context.Context, plan *models.Plan) error
	Upsert(ctx context.Context, plan *models.Plan) error
	SetActive(ctx context.Context, id string, active bool) error
}

// SubscriptionRepository defines the interface for tenant subscriptions
type SubscriptionRepository interface {
	GetActiveByTenant(ctx context.Context, tenantID uint) (*models.Subscription, error)
	ListByTenant(ctx context.Context, tenantID uint) ([]models.Subscription, error)
	// ReplaceActive supersedes every ACTIVE subscription of the tenant and stores sub as the new one.
	ReplaceActive(ctx context.Context, sub *models.Subscription) error
}

// CertificateRepository defines the interface for certificate persistence and usage aggregates
type CertificateRepository interface {
	Create(ctx context.Context, cert *models.Certificate) error
	GetByID(ctx context.Context, id string) (*models.Certificate, error)
	Update(ctx context.Context, cert *models.Certificate) error
	UpdateStatus(ctx context.Context, id, status string) error
	SetPreviewKey(ctx context.Context, id, key string) error
	Delete(ctx context.Context, id string) error
	ListByTenant(ctx context.Context, tenantID uint, groupName string, offset, limit int) ([]models.Certificate, error)
	CountByTenant(ctx context.Context, tenantID uint) (int64, error)
	CountTrainings(ctx context.Context, tenantID uint) (int64, error)
	CountByTraining(ctx context.Context, tenantID uint) (map[string]int64, error)
	CountInTraining(ctx context.Context, tenantID uint, groupName string) (int64, error)
}

// DesignRepository defines the interface for design-related database operations
type DesignRepository interface {
	Create(ctx context.Context, design *models.Design) error
	GetByID(ctx context.Context, id uint) (*models.Design, error)
	ListForTenant(ctx context.Context, tenantID uint) ([]models.Design, error)
	Delete(ctx context.Context, id uint) error
	CountOwned(ctx context.Context, tenantID uint) (int64, error)
}

// AssetRepository defines the interface for asset-related database operations
type AssetRepository interface {
	Create(ctx context.Context, asset *models.Asset) error
	GetByID(ctx context.Context, id uint) (*models.Asset, error)
	ListForTenant(ctx context.Context, tenantID uint, assetType string) ([]models.Asset, error)
	Delete(ctx context.Context, id uint) error
	UsageByTenant(ctx context.Context, tenantID uint) (*AssetUsage, error)
}

// AssetUsage aggregates the assets attributed to a tenant.
type AssetUsage struct {
	Count int64
	Bytes int64
}

// Repositories struct holds all repository instances
type Repositories struct {
	Tenant       TenantRepository
	Plan         PlanRepository
	Subscription SubscriptionRepository
	Certificate  CertificateRepository
	Design       DesignRepository
	Asset        AssetRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Tenant:       NewTenantRepository(db),
		Plan:         NewPlanRepository(db),
		Subscription: NewSubscriptionRepository(db),
		Certificate:  NewCertificateRepository(db),
		Design:       NewDesignRepository(db),
		Asset:        NewAssetRepository(db),
	}
}
