package quota

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/CertFox/app/repository"
	"github.com/ManuelReschke/CertFox/internal/pkg/entitlements"
)

const bytesPerMB = 1024 * 1024

// Plan sources reported in a Snapshot.
const (
	SourceStore    = "store"
	SourceCatalog  = "catalog"
	SourceFallback = "default"
)

// Usage is the consumption of a tenant at the instant of the read.
type Usage struct {
	Trainings               int64            `json:"trainings"`
	Certificates            int64            `json:"certificates"`
	CertificatesPerTraining map[string]int64 `json:"certificates_per_training"`
	Designs                 int64            `json:"designs"`
	Assets                  int64            `json:"assets"`
	StorageBytes            int64            `json:"storage_bytes"`
	StorageMB               int64            `json:"storage_mb"`
}

// Snapshot combines the resolved plan and current usage of one tenant.
type Snapshot struct {
	TenantID   uint              `json:"tenant_id"`
	Plan       entitlements.Plan `json:"plan"`
	PlanSource string            `json:"plan_source"`
	Usage      Usage             `json:"usage"`
}

// HasTraining reports whether the tenant already issued into group.
func (s *Snapshot) HasTraining(group string) bool {
	_, ok := s.Usage.CertificatesPerTraining[group]
	return ok
}

// Resolver determines a tenant's plan and usage from committed state.
type Resolver struct {
	repos   *repository.Repositories
	catalog *entitlements.Catalog
}

// NewResolver creates a resolver. A nil catalog selects the built-in tiers.
func NewResolver(repos *repository.Repositories, catalog *entitlements.Catalog) *Resolver {
	if catalog == nil {
		catalog = entitlements.DefaultCatalog()
	}
	return &Resolver{repos: repos, catalog: catalog}
}

// Catalog returns the fallback catalog.
func (r *Resolver) Catalog() *entitlements.Catalog {
	return r.catalog
}

// Resolve returns the snapshot for tenantID. Unknown tenants resolve to the default plan
// with zero usage; only store faults are returned as errors.
func (r *Resolver) Resolve(ctx context.Context, tenantID uint) (*Snapshot, error) {
	plan, source, err := r.ResolvePlan(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	usage, err := r.usage(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return &Snapshot{TenantID: tenantID, Plan: plan, PlanSource: source, Usage: *usage}, nil
}

// ResolveTraining is Resolve with the count for group read through the store's own
// comparison rules, so a spelling the store treats as equal to an existing group is
// counted against that group.
func (r *Resolver) ResolveTraining(ctx context.Context, tenantID uint, group string) (*Snapshot, error) {
	snap, err := r.Resolve(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if group == "" {
		return snap, nil
	}
	n, err := r.repos.Certificate.CountInTraining(ctx, tenantID, group)
	if err != nil {
		return nil, fmt.Errorf("count certificates in training: %w", err)
	}
	if n > 0 {
		snap.Usage.CertificatesPerTraining[group] = n
	} else {
		delete(snap.Usage.CertificatesPerTraining, group)
	}
	return snap, nil
}

// ResolvePlan returns the plan of the tenant's ACTIVE subscription, or the default plan.
func (r *Resolver) ResolvePlan(ctx context.Context, tenantID uint) (entitlements.Plan, string, error) {
	planID := r.catalog.DefaultID()
	sub, err := r.repos.Subscription.GetActiveByTenant(ctx, tenantID)
	switch {
	case err == nil:
		planID = sub.PlanID
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return entitlements.Plan{}, "", fmt.Errorf("load subscription: %w", err)
	}
	return r.LookupPlan(ctx, planID)
}

// LookupPlan reads planID from the plan store, then the catalog, then falls back to the
// catalog default.
func (r *Resolver) LookupPlan(ctx context.Context, planID string) (entitlements.Plan, string, error) {
	row, err := r.repos.Plan.GetByID(ctx, entitlements.NormalizePlanID(planID))
	if err == nil {
		return entitlements.FromModel(row), SourceStore, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return entitlements.Plan{}, "", fmt.Errorf("load plan %q: %w", planID, err)
	}
	if p, ok := r.catalog.Lookup(planID); ok {
		return p, SourceCatalog, nil
	}
	log.Warnf("[Quota] plan %q unknown, falling back to %q", planID, r.catalog.DefaultID())
	return r.catalog.Default(), SourceFallback, nil
}

func (r *Resolver) usage(ctx context.Context, tenantID uint) (*Usage, error) {
	u := &Usage{}
	var err error

	if u.Trainings, err = r.repos.Certificate.CountTrainings(ctx, tenantID); err != nil {
		return nil, fmt.Errorf("count trainings: %w", err)
	}
	if u.Certificates, err = r.repos.Certificate.CountByTenant(ctx, tenantID); err != nil {
		return nil, fmt.Errorf("count certificates: %w", err)
	}
	if u.CertificatesPerTraining, err = r.repos.Certificate.CountByTraining(ctx, tenantID); err != nil {
		return nil, fmt.Errorf("count certificates per training: %w", err)
	}
	if u.Designs, err = r.repos.Design.CountOwned(ctx, tenantID); err != nil {
		return nil, fmt.Errorf("count designs: %w", err)
	}
	assets, err := r.repos.Asset.UsageByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("sum assets: %w", err)
	}
	u.Assets = assets.Count
	u.StorageBytes = assets.Bytes
	u.StorageMB = BytesToMB(assets.Bytes)

	if u.CertificatesPerTraining == nil {
		u.CertificatesPerTraining = map[string]int64{}
	}
	return u, nil
}

// BytesToMB converts a byte count to whole megabytes, rounding half up.
func BytesToMB(n int64) int64 {
	return int64(math.Round(float64(n) / bytesPerMB))
}
