package repository

import (
	"context"

	"github.com/ManuelReschke/CertFox/app/models"
	"gorm.io/gorm"
)

type designRepository struct {
	db *gorm.DB
}

// NewDesignRepository creates a new design repository instance
func NewDesignRepository(db *gorm.DB) DesignRepository {
	return &designRepository{db: db}
}

func (r *designRepository) Create(ctx context.Context, design *models.Design) error {
	return r.db.WithContext(ctx).Create(design).Error
}

func (r *designRepository) GetByID(ctx context.Context, id uint) (*models.Design, error) {
	var design models.Design
	if err := r.db.WithContext(ctx).First(&design, id).Error; err != nil {
		return nil, err
	}
	return &design, nil
}

// ListForTenant returns the tenant's own designs followed by the shared templates.
func (r *designRepository) ListForTenant(ctx context.Context, tenantID uint) ([]models.Design, error) {
	var designs []models.Design
	err := r.db.WithContext(ctx).Omit("document").
		Where("tenant_id = ? OR is_template = ?", tenantID, true).
		Order("is_template ASC, created_at DESC").
		Find(&designs).Error
	return designs, err
}

func (r *designRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Design{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountOwned counts the tenant's non-template designs.
func (r *designRepository) CountOwned(ctx context.Context, tenantID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Design{}).
		Where("tenant_id = ? AND is_template = ?", tenantID, false).
		Count(&count).Error
	return count, err
}
