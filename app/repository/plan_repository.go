package repository

import (
	"context"

	"github.com/ManuelReschke/CertFox/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type planRepository struct {
	db *gorm.DB
}

// NewPlanRepository creates a new plan repository instance
func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

func (r *planRepository) GetByID(ctx context.Context, id string) (*models.Plan, error) {
	var plan models.Plan
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *planRepository) List(ctx context.Context) ([]models.Plan, error) {
	var plans []models.Plan
	err := r.db.WithContext(ctx).Order("sort_order ASC, id ASC").Find(&plans).Error
	return plans, err
}

// ListActive returns plans that may be shown in public listings.
func (r *planRepository) ListActive(ctx context.Context) ([]models.Plan, error) {
	var plans []models.Plan
	err := r.db.WithContext(ctx).Where("is_active = ?", true).
		Order("sort_order ASC, id ASC").Find(&plans).Error
	return plans, err
}

func (r *planRepository) Save(ctx context.Context, plan *models.Plan) error {
	return r.db.WithContext(ctx).Save(plan).Error
}

// Upsert inserts the plan or overwrites limits, features and pricing of an existing row.
func (r *planRepository) Upsert(ctx context.Context, plan *models.Plan) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name",
			"price_cents",
			"currency",
			"billing_type",
			"sort_order",
			"limit_trainings",
			"limit_certificates_per_training",
			"limit_designs",
			"limit_assets",
			"limit_storage_mb",
			"feature_mandatory_footer",
			"feature_social_share",
			"feature_status_management",
			"feature_white_label",
			"feature_api_access",
			"updated_at",
		}),
	}).Create(plan).Error
}

// SetActive toggles public visibility. Existence is the caller's concern.
func (r *planRepository) SetActive(ctx context.Context, id string, active bool) error {
	return r.db.WithContext(ctx).Model(&models.Plan{}).
		Where("id = ?", id).
		UpdateColumn("is_active", active).Error
}
