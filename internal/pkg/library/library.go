// Package library manages designs and uploaded assets under plan limits.
package library

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/ManuelReschke/CertFox/app/models"
	"github.com/ManuelReschke/CertFox/app/repository"
	"github.com/ManuelReschke/CertFox/internal/pkg/certificate"
	"github.com/ManuelReschke/CertFox/internal/pkg/quota"
	"github.com/ManuelReschke/CertFox/internal/pkg/templating"
	"github.com/ManuelReschke/CertFox/internal/pkg/tenantlock"
)

// ErrNotFound is returned for missing designs and assets, and for items of other tenants.
var ErrNotFound = errors.New("library item not found")

// DesignInput describes a design to save.
type DesignInput struct {
	Name        string      `json:"name" validate:"required,max=255"`
	Document    models.JSON `json:"document"`
	Orientation string      `json:"orientation" validate:"omitempty,oneof=landscape portrait"`
	Thumbnail   string      `json:"thumbnail"`
}

// DesignDetail is a design together with the placeholders its document uses.
type DesignDetail struct {
	models.Design
	Placeholders []string `json:"placeholders"`
}

// AssetInput describes an upload. Data is base64 or a data: URL.
type AssetInput struct {
	Type string `json:"type" validate:"omitempty,oneof=image element template"`
	Name string `json:"name" validate:"required,max=255"`
	Data string `json:"data" validate:"required"`
}

type Service struct {
	repos    *repository.Repositories
	resolver *quota.Resolver
	gate     *quota.Gate
	locker   tenantlock.Locker
	validate *validator.Validate
}

func NewService(repos *repository.Repositories, resolver *quota.Resolver, locker tenantlock.Locker) *Service {
	if locker == nil {
		locker = tenantlock.NewMemoryLocker()
	}
	return &Service{
		repos:    repos,
		resolver: resolver,
		gate:     quota.NewGate(),
		locker:   locker,
		validate: validator.New(),
	}
}

func (s *Service) checkDesign(in *DesignInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Orientation == "" {
		in.Orientation = models.OrientationLandscape
	}
	if err := s.validate.Struct(in); err != nil {
		return &certificate.ValidationError{Err: err}
	}
	if in.Document.IsEmpty() || !json.Valid(in.Document) {
		return &certificate.ValidationError{Err: errors.New("document must be a JSON design")}
	}
	return nil
}

// CreateDesign saves a tenant design if the designs limit allows another one.
func (s *Service) CreateDesign(ctx context.Context, tenantID uint, in DesignInput) (*models.Design, error) {
	if err := s.checkDesign(&in); err != nil {
		return nil, err
	}
	owner := tenantID
	design := &models.Design{
		TenantID:    &owner,
		Name:        in.Name,
		Document:    in.Document,
		Orientation: in.Orientation,
		Thumbnail:   in.Thumbnail,
	}

	err := tenantlock.WithLock(ctx, s.locker, tenantID, func() error {
		snap, err := s.resolver.Resolve(ctx, tenantID)
		if err != nil {
			return err
		}
		if err := s.gate.CheckDesign(snap); err != nil {
			return err
		}
		return s.repos.Design.Create(ctx, design)
	})
	if err != nil {
		return nil, err
	}
	return design, nil
}

// CreateTemplate saves a shared template. Templates have no owner and no quota.
func (s *Service) CreateTemplate(ctx context.Context, in DesignInput) (*models.Design, error) {
	if err := s.checkDesign(&in); err != nil {
		return nil, err
	}
	design := &models.Design{
		Name:        in.Name,
		Document:    in.Document,
		IsTemplate:  true,
		Orientation: in.Orientation,
		Thumbnail:   in.Thumbnail,
	}
	if err := s.repos.Design.Create(ctx, design); err != nil {
		return nil, err
	}
	return design, nil
}

// ListDesigns returns the tenant's designs and all templates, without documents.
func (s *Service) ListDesigns(ctx context.Context, tenantID uint) ([]models.Design, error) {
	return s.repos.Design.ListForTenant(ctx, tenantID)
}

func (s *Service) GetDesign(ctx context.Context, tenantID, id uint) (*DesignDetail, error) {
	design, err := s.repos.Design.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !design.AccessibleBy(tenantID) {
		return nil, ErrNotFound
	}
	detail := &DesignDetail{Design: *design, Placeholders: []string{}}
	if tokens, err := templating.Tokens(design.Document); err == nil {
		detail.Placeholders = tokens
	}
	return detail, nil
}

// DeleteDesign removes one of the tenant's own designs. Templates cannot be deleted here.
func (s *Service) DeleteDesign(ctx context.Context, tenantID, id uint) error {
	design, err := s.repos.Design.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if design.IsTemplate || design.TenantID == nil || *design.TenantID != tenantID {
		return ErrNotFound
	}
	if err := s.repos.Design.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// decodePayload accepts raw base64 or a data URL and returns bytes, content type and
// the length of the base64 text, which is what storage quota is charged for.
func decodePayload(payload string) ([]byte, string, int64, error) {
	payload = strings.TrimSpace(payload)
	contentType := ""
	if strings.HasPrefix(payload, "data:") {
		comma := strings.IndexByte(payload, ',')
		if comma < 0 {
			return nil, "", 0, errors.New("malformed data URL")
		}
		meta := payload[len("data:"):comma]
		if !strings.HasSuffix(meta, ";base64") {
			return nil, "", 0, errors.New("data URL must be base64 encoded")
		}
		contentType = strings.TrimSuffix(meta, ";base64")
		payload = payload[comma+1:]
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", 0, fmt.Errorf("invalid base64 payload: %w", err)
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, int64(len(payload)), nil
}

// CreateAsset stores an upload. Attributed uploads are checked against the assets and
// storage limits; a nil tenant adds to the shared library without quota.
func (s *Service) CreateAsset(ctx context.Context, tenantID *uint, in AssetInput) (*models.Asset, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validate.Struct(in); err != nil {
		return nil, &certificate.ValidationError{Err: err}
	}
	data, contentType, encodedSize, err := decodePayload(in.Data)
	if err != nil {
		return nil, &certificate.ValidationError{Err: err}
	}
	if len(data) == 0 {
		return nil, &certificate.ValidationError{Err: errors.New("asset is empty")}
	}
	if in.Type == "" {
		in.Type = models.AssetTypeImage
	}

	asset := &models.Asset{
		TenantID:    tenantID,
		Type:        in.Type,
		Name:        in.Name,
		ContentType: contentType,
		Data:        data,
		SizeBytes:   encodedSize,
	}

	if tenantID == nil {
		if err := s.repos.Asset.Create(ctx, asset); err != nil {
			return nil, err
		}
		return asset, nil
	}

	err = tenantlock.WithLock(ctx, s.locker, *tenantID, func() error {
		snap, err := s.resolver.Resolve(ctx, *tenantID)
		if err != nil {
			return err
		}
		if err := s.gate.CheckAsset(snap, asset.SizeBytes); err != nil {
			return err
		}
		return s.repos.Asset.Create(ctx, asset)
	})
	if err != nil {
		return nil, err
	}
	return asset, nil
}

// ListAssets returns the tenant's assets and the shared library, optionally by type.
func (s *Service) ListAssets(ctx context.Context, tenantID uint, assetType string) ([]models.Asset, error) {
	return s.repos.Asset.ListForTenant(ctx, tenantID, strings.TrimSpace(assetType))
}

// DeleteAsset removes one of the tenant's own assets.
func (s *Service) DeleteAsset(ctx context.Context, tenantID, id uint) error {
	asset, err := s.repos.Asset.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if asset.TenantID == nil || *asset.TenantID != tenantID {
		return ErrNotFound
	}
	if err := s.repos.Asset.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
