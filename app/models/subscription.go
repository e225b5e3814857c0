package models

import "time"

const (
	SubscriptionStatusActive     = "ACTIVE"
	SubscriptionStatusSuperseded = "SUPERSEDED"
	SubscriptionStatusCanceled   = "CANCELED"
)

// Subscription binds a tenant to a plan. Only the newest ACTIVE row of a tenant is consulted.
type Subscription struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	TenantID  uint       `gorm:"not null;index:idx_subscriptions_tenant_status,priority:1" json:"tenant_id"`
	PlanID    string     `gorm:"type:varchar(50);not null;index" json:"plan_id"`
	Status    string     `gorm:"type:varchar(20);not null;default:'ACTIVE';index:idx_subscriptions_tenant_status,priority:2" json:"status"`
	StartedAt time.Time  `gorm:"not null" json:"started_at"`
	EndedAt   *time.Time `gorm:"default:null" json:"ended_at,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
