package repository

import (
	"context"

	"github.com/ManuelReschke/CertFox/app/models"
	"gorm.io/gorm"
)

type assetRepository struct {
	db *gorm.DB
}

// NewAssetRepository creates a new asset repository instance
func NewAssetRepository(db *gorm.DB) AssetRepository {
	return &assetRepository{db: db}
}

func (r *assetRepository) Create(ctx context.Context, asset *models.Asset) error {
	return r.db.WithContext(ctx).Create(asset).Error
}

func (r *assetRepository) GetByID(ctx context.Context, id uint) (*models.Asset, error) {
	var asset models.Asset
	if err := r.db.WithContext(ctx).First(&asset, id).Error; err != nil {
		return nil, err
	}
	return &asset, nil
}

// ListForTenant returns the tenant's assets and the shared library, without payloads.
func (r *assetRepository) ListForTenant(ctx context.Context, tenantID uint, assetType string) ([]models.Asset, error) {
	var assets []models.Asset
	q := r.db.WithContext(ctx).Omit("data").Where("tenant_id = ? OR tenant_id IS NULL", tenantID)
	if assetType != "" {
		q = q.Where("type = ?", assetType)
	}
	err := q.Order("created_at DESC").Find(&assets).Error
	return assets, err
}

func (r *assetRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Asset{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *assetRepository) UsageByTenant(ctx context.Context, tenantID uint) (*AssetUsage, error) {
	var usage AssetUsage
	err := r.db.WithContext(ctx).Model(&models.Asset{}).
		Select("COUNT(*) AS count, COALESCE(SUM(size_bytes), 0) AS bytes").
		Where("tenant_id = ?", tenantID).
		Scan(&usage).Error
	if err != nil {
		return nil, err
	}
	return &usage, nil
}
