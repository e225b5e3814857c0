package repository

import (
	"context"
	"time"

	"github.com/ManuelReschke/CertFox/app/models"
	"gorm.io/gorm"
)

type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository instance
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// GetActiveByTenant returns the newest ACTIVE subscription of a tenant.
func (r *subscriptionRepository) GetActiveByTenant(ctx context.Context, tenantID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ?", tenantID, models.SubscriptionStatusActive).
		Order("started_at DESC, id DESC").
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) ListByTenant(ctx context.Context, tenantID uint) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).
		Order("started_at DESC, id DESC").Find(&subs).Error
	return subs, err
}

func (r *subscriptionRepository) ReplaceActive(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		if err := tx.Model(&models.Subscription{}).
			Where("tenant_id = ? AND status = ?", sub.TenantID, models.SubscriptionStatusActive).
			Updates(map[string]interface{}{
				"status":   models.SubscriptionStatusSuperseded,
				"ended_at": &now,
			}).Error; err != nil {
			return err
		}
		sub.Status = models.SubscriptionStatusActive
		if sub.StartedAt.IsZero() {
			sub.StartedAt = now
		}
		return tx.Create(sub).Error
	})
}
