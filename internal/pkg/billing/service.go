// Package billing manages the plan catalog and tenant subscriptions. No payments are
// taken here; a plan change takes effect immediately.
package billing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/CertFox/app/models"
	"github.com/ManuelReschke/CertFox/app/repository"
	"github.com/ManuelReschke/CertFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/CertFox/internal/pkg/quota"
)

// ErrPlanNotFound is returned for unknown or inactive plans.
var ErrPlanNotFound = errors.New("plan not found")

// InvalidPlanError rejects a malformed operator plan definition.
type InvalidPlanError struct {
	Reason string
}

func (e *InvalidPlanError) Error() string {
	return "invalid plan: " + e.Reason
}

// ChangeResult describes a completed plan change.
type ChangeResult struct {
	Subscription *models.Subscription `json:"subscription"`
	Plan         entitlements.Plan    `json:"plan"`
	Previous     string               `json:"previous_plan_id"`
	Direction    string               `json:"direction"`
}

// Service provides plan catalog and subscription operations.
type Service struct {
	repos    *repository.Repositories
	resolver *quota.Resolver
}

// NewService creates a billing service. Catalog fallbacks come from the resolver.
func NewService(repos *repository.Repositories, resolver *quota.Resolver) *Service {
	return &Service{repos: repos, resolver: resolver}
}

// plans merges the durable plans over the catalog, keyed by id.
func (s *Service) plans(ctx context.Context) (map[string]entitlements.Plan, error) {
	merged := make(map[string]entitlements.Plan)
	for _, p := range s.resolver.Catalog().Plans() {
		merged[p.ID] = p
	}
	rows, err := s.repos.Plan.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		p := entitlements.FromModel(&rows[i])
		merged[p.ID] = p
	}
	return merged, nil
}

// ListPublicPlans returns active plans ordered for display.
func (s *Service) ListPublicPlans(ctx context.Context) ([]entitlements.Plan, error) {
	merged, err := s.plans(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]entitlements.Plan, 0, len(merged))
	for _, p := range merged {
		if p.Active {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// DefaultPlanID is the plan new tenants start on.
func (s *Service) DefaultPlanID() string {
	return s.resolver.Catalog().DefaultID()
}

// GetPlan returns a plan from the store or the catalog, active or not.
func (s *Service) GetPlan(ctx context.Context, id string) (entitlements.Plan, error) {
	merged, err := s.plans(ctx)
	if err != nil {
		return entitlements.Plan{}, err
	}
	p, ok := merged[entitlements.NormalizePlanID(id)]
	if !ok {
		return entitlements.Plan{}, ErrPlanNotFound
	}
	return p, nil
}

// ChangePlan supersedes the tenant's ACTIVE subscription with one for planID.
// Existing resources stay in place when downgrading; only new creations are gated.
func (s *Service) ChangePlan(ctx context.Context, tenantID uint, planID string) (*ChangeResult, error) {
	target, err := s.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !target.Active {
		return nil, ErrPlanNotFound
	}

	current, _, err := s.resolver.ResolvePlan(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	sub := &models.Subscription{TenantID: tenantID, PlanID: target.ID}
	if err := s.repos.Subscription.ReplaceActive(ctx, sub); err != nil {
		return nil, fmt.Errorf("replace subscription: %w", err)
	}

	res := &ChangeResult{
		Subscription: sub,
		Plan:         target,
		Previous:     current.ID,
		Direction:    direction(current, target),
	}
	log.Infof("[Billing] tenant %d %s: %s -> %s", tenantID, res.Direction, current.ID, target.ID)
	return res, nil
}

// SeedCatalog writes the built-in catalog to the plan table. Existing rows get the
// catalog's limits, features and prices; their active flag is kept.
func (s *Service) SeedCatalog(ctx context.Context) error {
	for _, p := range s.resolver.Catalog().Plans() {
		if err := s.repos.Plan.Upsert(ctx, entitlements.ToModel(p)); err != nil {
			return fmt.Errorf("seed plan %s: %w", p.ID, err)
		}
	}
	return nil
}

func validatePlan(p *entitlements.Plan) error {
	p.ID = entitlements.NormalizePlanID(p.ID)
	p.Name = strings.TrimSpace(p.Name)
	if !planIDPattern.MatchString(p.ID) {
		return &InvalidPlanError{Reason: "id must be a lowercase slug"}
	}
	if p.Name == "" {
		return &InvalidPlanError{Reason: "name is required"}
	}
	if !p.Price.Negotiated && p.Price.AmountCents < 0 {
		return &InvalidPlanError{Reason: "price must not be negative"}
	}
	if p.Price.Currency == "" {
		p.Price.Currency = "EUR"
	}
	if len(p.Price.Currency) != 3 {
		return &InvalidPlanError{Reason: "currency must be an ISO 4217 code"}
	}
	p.Price.Currency = strings.ToUpper(p.Price.Currency)
	p.BillingType = entitlements.NormalizeBillingType(string(p.BillingType))
	return nil
}

// SavePlan creates or replaces an operator-defined plan.
func (s *Service) SavePlan(ctx context.Context, p entitlements.Plan) (entitlements.Plan, error) {
	if err := validatePlan(&p); err != nil {
		return entitlements.Plan{}, err
	}
	row := entitlements.ToModel(p)
	if existing, err := s.repos.Plan.GetByID(ctx, row.ID); err == nil {
		row.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return entitlements.Plan{}, err
	}
	if err := s.repos.Plan.Save(ctx, row); err != nil {
		return entitlements.Plan{}, err
	}
	// Save skips zero-valued columns with a default on insert.
	if err := s.repos.Plan.SetActive(ctx, row.ID, p.Active); err != nil {
		return entitlements.Plan{}, err
	}
	return p, nil
}

// DeactivatePlan hides a plan from public listings. Subscriptions referencing it keep
// resolving to it.
func (s *Service) DeactivatePlan(ctx context.Context, id string) error {
	id = entitlements.NormalizePlanID(id)
	if _, err := s.repos.Plan.GetByID(ctx, id); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		p, ok := s.resolver.Catalog().Lookup(id)
		if !ok {
			return ErrPlanNotFound
		}
		if err := s.repos.Plan.Upsert(ctx, entitlements.ToModel(p)); err != nil {
			return err
		}
	}
	return s.repos.Plan.SetActive(ctx, id, false)
}
