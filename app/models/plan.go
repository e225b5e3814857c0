package models

import "time"

const (
	BillingTypeOneTime   = "one_time"
	BillingTypeRecurring = "recurring"
)

// Plan is the durable definition of a subscription tier. A NULL limit column means
// the dimension is unbounded; a NULL price means the price is negotiated per contract.
type Plan struct {
	ID          string `gorm:"type:varchar(50);primaryKey" json:"id"`
	Name        string `gorm:"type:varchar(100);not null" json:"name"`
	PriceCents  *int64 `gorm:"type:bigint" json:"price_cents"`
	Currency    string `gorm:"type:varchar(3);not null;default:'EUR'" json:"currency"`
	BillingType string `gorm:"type:varchar(20);not null;default:'recurring'" json:"billing_type"`
	SortOrder   int    `gorm:"not null;default:0" json:"sort_order"`
	IsActive    bool   `gorm:"not null;default:true;index" json:"is_active"`

	LimitTrainings               *int64 `gorm:"type:bigint" json:"limit_trainings"`
	LimitCertificatesPerTraining *int64 `gorm:"type:bigint" json:"limit_certificates_per_training"`
	LimitDesigns                 *int64 `gorm:"type:bigint" json:"limit_designs"`
	LimitAssets                  *int64 `gorm:"type:bigint" json:"limit_assets"`
	LimitStorageMB               *int64 `gorm:"type:bigint" json:"limit_storage_mb"`

	FeatureMandatoryFooter  bool `gorm:"not null;default:false" json:"feature_mandatory_footer"`
	FeatureSocialShare      bool `gorm:"not null;default:false" json:"feature_social_share"`
	FeatureStatusManagement bool `gorm:"not null;default:false" json:"feature_status_management"`
	FeatureWhiteLabel       bool `gorm:"not null;default:false" json:"feature_white_label"`
	FeatureAPIAccess        bool `gorm:"not null;default:false" json:"feature_api_access"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
