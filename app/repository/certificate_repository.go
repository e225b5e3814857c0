package repository

import (
	"context"

	"github.com/ManuelReschke/CertFox/app/models"
	"gorm.io/gorm"
)

type certificateRepository struct {
	db *gorm.DB
}

// NewCertificateRepository creates a new certificate repository instance
func NewCertificateRepository(db *gorm.DB) CertificateRepository {
	return &certificateRepository{db: db}
}

func (r *certificateRepository) Create(ctx context.Context, cert *models.Certificate) error {
	return r.db.WithContext(ctx).Create(cert).Error
}

func (r *certificateRepository) GetByID(ctx context.Context, id string) (*models.Certificate, error) {
	var cert models.Certificate
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&cert).Error; err != nil {
		return nil, err
	}
	return &cert, nil
}

// Update persists the editable recipient fields only. Status and share token are never
// written through this path. MySQL reports unchanged rows as unaffected, so existence
// is the caller's concern.
func (r *certificateRepository) Update(ctx context.Context, cert *models.Certificate) error {
	return r.db.WithContext(ctx).Model(&models.Certificate{}).
		Where("id = ?", cert.ID).
		Select("recipient_name", "recipient_email", "program_name", "issue_date").
		Updates(cert).Error
}

func (r *certificateRepository) UpdateStatus(ctx context.Context, id, status string) error {
	return r.db.WithContext(ctx).Model(&models.Certificate{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// SetPreviewKey records where the preview artifact was archived.
func (r *certificateRepository) SetPreviewKey(ctx context.Context, id, key string) error {
	return r.db.WithContext(ctx).Model(&models.Certificate{}).
		Where("id = ?", id).
		UpdateColumn("preview_key", key).Error
}

func (r *certificateRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Certificate{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListByTenant returns the tenant's certificates, newest first, optionally for one training group.
func (r *certificateRepository) ListByTenant(ctx context.Context, tenantID uint, groupName string, offset, limit int) ([]models.Certificate, error) {
	var certs []models.Certificate
	q := r.db.WithContext(ctx).Omit("design", "preview_image").Where("tenant_id = ?", tenantID)
	if groupName != "" {
		q = q.Where("group_name = ?", groupName)
	}
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&certs).Error
	return certs, err
}

func (r *certificateRepository) CountByTenant(ctx context.Context, tenantID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Certificate{}).Where("tenant_id = ?", tenantID).Count(&count).Error
	return count, err
}

// CountTrainings returns the number of distinct training groups the tenant has issued into.
func (r *certificateRepository) CountTrainings(ctx context.Context, tenantID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Certificate{}).
		Where("tenant_id = ? AND group_name <> ''", tenantID).
		Distinct("group_name").
		Count(&count).Error
	return count, err
}

func (r *certificateRepository) CountByTraining(ctx context.Context, tenantID uint) (map[string]int64, error) {
	var rows []struct {
		GroupName string
		Total     int64
	}
	err := r.db.WithContext(ctx).Model(&models.Certificate{}).
		Select("group_name, COUNT(*) AS total").
		Where("tenant_id = ? AND group_name <> ''", tenantID).
		Group("group_name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.GroupName] = row.Total
	}
	return counts, nil
}

// CountInTraining counts the tenant's certificates in groupName. Equality follows the
// column collation, so case variants match on MySQL.
func (r *certificateRepository) CountInTraining(ctx context.Context, tenantID uint, groupName string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Certificate{}).
		Where("tenant_id = ? AND group_name = ?", tenantID, groupName).
		Count(&count).Error
	return count, err
}
