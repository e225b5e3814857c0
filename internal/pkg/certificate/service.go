// Package certificate owns the certificate lifecycle: quota-gated issuance,
// revocation, edits and share-token gated reads.
package certificate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ManuelReschke/CertFox/app/models"
	"github.com/ManuelReschke/CertFox/app/repository"
	"github.com/ManuelReschke/CertFox/internal/pkg/artifactstore"
	"github.com/ManuelReschke/CertFox/internal/pkg/metrics"
	"github.com/ManuelReschke/CertFox/internal/pkg/quota"
	"github.com/ManuelReschke/CertFox/internal/pkg/renderer"
	"github.com/ManuelReschke/CertFox/internal/pkg/security"
	"github.com/ManuelReschke/CertFox/internal/pkg/tenantlock"
)

// IssueInput describes one certificate to create. ID may be preset by callers that
// embed it in the design before issuing; it must then be a UUID.
type IssueInput struct {
	ID             string    `validate:"omitempty,uuid"`
	TenantID       uint      `validate:"required"`
	RecipientName  string    `validate:"required,max=255"`
	RecipientEmail string    `validate:"omitempty,email,max=255"`
	ProgramName    string    `validate:"required,max=255"`
	IssueDate      time.Time `validate:"required"`
	GroupName      string    `validate:"max=255"`
	Orientation    string    `validate:"omitempty,oneof=landscape portrait"`
	Design         models.JSON
	PreviewImage   string
	Preview        *renderer.Artifact
}

// EditInput changes recipient, program or date. Nil fields are left alone.
type EditInput struct {
	RecipientName  *string    `validate:"omitempty,min=1,max=255"`
	RecipientEmail *string    `validate:"omitempty,max=255"`
	ProgramName    *string    `validate:"omitempty,min=1,max=255"`
	IssueDate      *time.Time `validate:"omitempty"`
}

// Service manages certificates.
type Service struct {
	repos    *repository.Repositories
	resolver *quota.Resolver
	gate     *quota.Gate
	locker   tenantlock.Locker
	archive  artifactstore.Store
	validate *validator.Validate
}

// NewService wires the lifecycle manager. archive may be nil.
func NewService(repos *repository.Repositories, resolver *quota.Resolver, locker tenantlock.Locker, archive artifactstore.Store) *Service {
	if locker == nil {
		locker = tenantlock.NewMemoryLocker()
	}
	return &Service{
		repos:    repos,
		resolver: resolver,
		gate:     quota.NewGate(),
		locker:   locker,
		archive:  archive,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (s *Service) normalize(in *IssueInput) error {
	in.RecipientName = strings.TrimSpace(in.RecipientName)
	in.RecipientEmail = strings.TrimSpace(in.RecipientEmail)
	in.ProgramName = strings.TrimSpace(in.ProgramName)
	in.GroupName = strings.TrimSpace(in.GroupName)
	if in.GroupName == "" {
		in.GroupName = in.ProgramName
	}
	if in.Orientation == "" {
		in.Orientation = models.OrientationLandscape
	}

	if err := s.validate.Struct(in); err != nil {
		return &ValidationError{Err: err}
	}
	if !in.Design.IsEmpty() && !json.Valid(in.Design) {
		return &ValidationError{Err: errors.New("design is not valid JSON")}
	}
	return nil
}

// Validate normalizes in and checks the fields Issue requires, without touching quota
// or storage. Callers use it to reject input before expensive work such as rendering.
func (s *Service) Validate(in *IssueInput) error {
	return s.normalize(in)
}

// Issue validates the input, checks the training and per-training limits and stores a
// valid certificate with a fresh share token. The check and the write happen under the
// tenant lock, so concurrent issues cannot overshoot a limit.
func (s *Service) Issue(ctx context.Context, in IssueInput) (*models.Certificate, error) {
	if err := s.normalize(&in); err != nil {
		return nil, err
	}

	token, err := security.NewShareToken()
	if err != nil {
		return nil, err
	}
	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}

	cert := &models.Certificate{
		ID:             id,
		TenantID:       in.TenantID,
		RecipientName:  in.RecipientName,
		RecipientEmail: in.RecipientEmail,
		ProgramName:    in.ProgramName,
		IssueDate:      truncateDate(in.IssueDate),
		Status:         models.CertificateStatusValid,
		Orientation:    in.Orientation,
		Design:         in.Design,
		PreviewImage:   in.PreviewImage,
		GroupName:      in.GroupName,
		ShareToken:     token,
	}
	if in.Preview != nil {
		cert.PreviewImage = in.Preview.DataURL()
	}

	err = tenantlock.WithLock(ctx, s.locker, in.TenantID, func() error {
		snap, err := s.resolver.ResolveTraining(ctx, in.TenantID, cert.GroupName)
		if err != nil {
			return err
		}
		if err := s.gate.CheckCertificate(snap, cert.GroupName); err != nil {
			return err
		}
		if err := s.repos.Certificate.Create(ctx, cert); err != nil {
			return fmt.Errorf("create certificate: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.CertificateIssued()
	s.archivePreview(ctx, cert, in.Preview)
	return cert, nil
}

func (s *Service) archivePreview(ctx context.Context, cert *models.Certificate, preview *renderer.Artifact) {
	if s.archive == nil || preview == nil {
		return
	}
	key := artifactstore.ObjectKey(cert.TenantID, cert.ID, preview.Extension(), time.Now())
	if err := s.archive.Put(ctx, key, preview.Data, preview.ContentType); err != nil {
		log.Warnf("[Certificate] archiving preview of %s failed: %v", cert.ID, err)
		return
	}
	if err := s.repos.Certificate.SetPreviewKey(ctx, cert.ID, key); err != nil {
		log.Warnf("[Certificate] recording preview key of %s failed: %v", cert.ID, err)
		return
	}
	cert.PreviewKey = key
}

// owned loads a certificate of tenantID.
func (s *Service) owned(ctx context.Context, tenantID uint, id string) (*models.Certificate, error) {
	cert, err := s.repos.Certificate.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if cert.TenantID != tenantID {
		return nil, ErrNotFound
	}
	return cert, nil
}

// Revoke moves a certificate to revoked. Revoking twice is not an error.
func (s *Service) Revoke(ctx context.Context, tenantID uint, id string) (*models.Certificate, error) {
	cert, err := s.owned(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if cert.IsRevoked() {
		return cert, nil
	}
	if err := s.repos.Certificate.UpdateStatus(ctx, id, models.CertificateStatusRevoked); err != nil {
		return nil, fmt.Errorf("revoke certificate: %w", err)
	}
	cert.Status = models.CertificateStatusRevoked
	return cert, nil
}

// Edit updates recipient, program and date. Status, token and group are never touched
// and no quota applies.
func (s *Service) Edit(ctx context.Context, tenantID uint, id string, in EditInput) (*models.Certificate, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, &ValidationError{Err: err}
	}
	cert, err := s.owned(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if in.RecipientName != nil {
		cert.RecipientName = strings.TrimSpace(*in.RecipientName)
	}
	if in.RecipientEmail != nil {
		cert.RecipientEmail = strings.TrimSpace(*in.RecipientEmail)
	}
	if in.ProgramName != nil {
		cert.ProgramName = strings.TrimSpace(*in.ProgramName)
	}
	if in.IssueDate != nil {
		cert.IssueDate = truncateDate(*in.IssueDate)
	}
	if cert.RecipientName == "" || cert.ProgramName == "" {
		return nil, &ValidationError{Err: errors.New("recipient name and program name must not be blank")}
	}
	if cert.RecipientEmail != "" {
		if err := s.validate.Var(cert.RecipientEmail, "email"); err != nil {
			return nil, &ValidationError{Err: err}
		}
	}

	if err := s.repos.Certificate.Update(ctx, cert); err != nil {
		return nil, fmt.Errorf("update certificate: %w", err)
	}
	return cert, nil
}

// Delete removes the certificate and, best effort, its archived preview.
func (s *Service) Delete(ctx context.Context, tenantID uint, id string) error {
	cert, err := s.owned(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if err := s.repos.Certificate.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete certificate: %w", err)
	}
	if s.archive != nil && cert.PreviewKey != "" {
		if err := s.archive.Delete(ctx, cert.PreviewKey); err != nil {
			log.Warnf("[Certificate] removing preview %s failed: %v", cert.PreviewKey, err)
		}
	}
	return nil
}

// Get reads a certificate by id. A token equal to the stored share token yields an
// OwnerView; a missing or wrong token yields a PublicView.
func (s *Service) Get(ctx context.Context, id, token string) (View, error) {
	cert, err := s.repos.Certificate.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	issuer, err := s.issuer(ctx, cert.TenantID)
	if err != nil {
		return nil, err
	}
	if security.TokenMatches(token, cert.ShareToken) {
		return newOwnerView(cert, issuer), nil
	}
	return newPublicView(cert, issuer), nil
}

func (s *Service) issuer(ctx context.Context, tenantID uint) (Issuer, error) {
	issuer := Issuer{TenantID: tenantID}
	tenant, err := s.repos.Tenant.GetByID(ctx, tenantID)
	switch {
	case err == nil:
		issuer.CompanyName = tenant.CompanyName
		if issuer.CompanyName == "" {
			issuer.CompanyName = tenant.Name
		}
		issuer.LogoURL = tenant.LogoURL
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return issuer, err
	}

	plan, _, err := s.resolver.ResolvePlan(ctx, tenantID)
	if err != nil {
		return issuer, err
	}
	issuer.PlanID = plan.ID
	issuer.Features = plan.Features
	return issuer, nil
}

// List returns the tenant's certificates, newest first, without design and preview.
func (s *Service) List(ctx context.Context, tenantID uint, group string, offset, limit int) ([]ListItem, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	certs, err := s.repos.Certificate.ListByTenant(ctx, tenantID, strings.TrimSpace(group), offset, limit)
	if err != nil {
		return nil, err
	}
	items := make([]ListItem, 0, len(certs))
	for _, c := range certs {
		items = append(items, ListItem{Certificate: c, ShareToken: c.ShareToken})
	}
	return items, nil
}

func truncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
