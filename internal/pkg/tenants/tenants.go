// Package tenants registers issuing organisations and manages their API keys.
package tenants

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/CertFox/app/models"
	"github.com/ManuelReschke/CertFox/app/repository"
	"github.com/ManuelReschke/CertFox/internal/pkg/billing"
	"github.com/ManuelReschke/CertFox/internal/pkg/certificate"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTenantDisabled     = errors.New("tenant disabled")
)

// RegisterInput describes a new tenant. An empty PlanID subscribes to the default plan.
type RegisterInput struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	CompanyName string `json:"company_name"`
	LogoURL     string `json:"logo_url"`
	PlanID      string `json:"plan_id"`
}

// Registration is the result of Register. APIKey is only available here.
type Registration struct {
	Tenant *models.Tenant        `json:"tenant"`
	APIKey string                `json:"api_key"`
	Plan   *billing.ChangeResult `json:"subscription"`
}

type Service struct {
	repos   *repository.Repositories
	billing *billing.Service
}

func NewService(repos *repository.Repositories, billingService *billing.Service) *Service {
	return &Service{repos: repos, billing: billingService}
}

// Register creates the tenant, its first API key and an ACTIVE subscription.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Registration, error) {
	tenant := &models.Tenant{
		Name:        strings.TrimSpace(in.Name),
		Email:       strings.ToLower(strings.TrimSpace(in.Email)),
		Password:    in.Password,
		CompanyName: strings.TrimSpace(in.CompanyName),
		LogoURL:     strings.TrimSpace(in.LogoURL),
		Status:      models.TENANT_STATUS_ACTIVE,
	}
	if err := tenant.Validate(); err != nil {
		return nil, &certificate.ValidationError{Err: err}
	}

	planID := strings.TrimSpace(in.PlanID)
	if planID == "" {
		planID = s.billing.DefaultPlanID()
	}
	if p, err := s.billing.GetPlan(ctx, planID); err != nil {
		return nil, err
	} else if !p.Active {
		return nil, billing.ErrPlanNotFound
	}

	if _, err := s.repos.Tenant.GetByEmail(ctx, tenant.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := models.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	tenant.Password = hash
	rawKey, err := tenant.IssueAPIKey()
	if err != nil {
		return nil, err
	}
	if err := s.repos.Tenant.Create(ctx, tenant); err != nil {
		return nil, fmt.Errorf("create tenant: %w", err)
	}

	change, err := s.billing.ChangePlan(ctx, tenant.ID, planID)
	if err != nil {
		return nil, err
	}
	log.Infof("[Tenants] registered tenant %d (%s) on plan %s", tenant.ID, tenant.Email, change.Plan.ID)
	return &Registration{Tenant: tenant, APIKey: rawKey, Plan: change}, nil
}

// IssueAPIKey checks email and password and rotates the tenant's API key.
func (s *Service) IssueAPIKey(ctx context.Context, email, password string) (*models.Tenant, string, error) {
	tenant, err := s.repos.Tenant.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if !models.CheckPasswordHash(password, tenant.Password) {
		return nil, "", ErrInvalidCredentials
	}
	if tenant.Status != models.TENANT_STATUS_ACTIVE {
		return nil, "", ErrTenantDisabled
	}

	rawKey, err := tenant.IssueAPIKey()
	if err != nil {
		return nil, "", err
	}
	if err := s.repos.Tenant.Update(ctx, tenant); err != nil {
		return nil, "", fmt.Errorf("store api key: %w", err)
	}
	return tenant, rawKey, nil
}

// Authenticate resolves an API key to its active tenant.
func (s *Service) Authenticate(ctx context.Context, rawKey string) (*models.Tenant, error) {
	rawKey = strings.TrimSpace(rawKey)
	if rawKey == "" {
		return nil, ErrInvalidCredentials
	}
	tenant, err := s.repos.Tenant.GetByAPIKeyHash(ctx, models.HashAPIKey(rawKey))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !tenant.HasActiveAPIKey() {
		return nil, ErrTenantDisabled
	}
	if err := s.repos.Tenant.TouchAPIKeyUsage(ctx, tenant.ID, time.Now()); err != nil {
		log.Warnf("[Tenants] failed to update api key usage for tenant %d: %v", tenant.ID, err)
	}
	return tenant, nil
}
