package models

import "time"

// Design is a certificate layout produced by the editor. Templates have no owner and
// are shared with every tenant.
type Design struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	TenantID    *uint     `gorm:"index" json:"tenant_id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Document    JSON      `gorm:"type:longtext" json:"document"`
	IsTemplate  bool      `gorm:"not null;default:false;index" json:"is_template"`
	Orientation string    `gorm:"type:varchar(20);not null;default:'landscape'" json:"orientation"`
	Thumbnail   string    `gorm:"type:longtext" json:"thumbnail,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// AccessibleBy reports whether a tenant may use the design for issuance.
func (d *Design) AccessibleBy(tenantID uint) bool {
	if d.IsTemplate {
		return true
	}
	return d.TenantID != nil && *d.TenantID == tenantID
}
