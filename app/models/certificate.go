package models

import "time"

const (
	CertificateStatusValid   = "valid"
	CertificateStatusRevoked = "revoked"
)

const (
	OrientationLandscape = "landscape"
	OrientationPortrait  = "portrait"
)

// Certificate is one issued credential. ShareToken is generated on creation and never changes.
type Certificate struct {
	ID             string    `gorm:"type:char(36);primaryKey" json:"id"`
	TenantID       uint      `gorm:"not null;index:idx_certificates_tenant_group,priority:1" json:"tenant_id"`
	RecipientName  string    `gorm:"type:varchar(255);not null" json:"recipient_name"`
	RecipientEmail string    `gorm:"type:varchar(255)" json:"recipient_email,omitempty"`
	ProgramName    string    `gorm:"type:varchar(255);not null" json:"program_name"`
	IssueDate      time.Time `gorm:"type:date;not null" json:"issue_date"`
	Status         string    `gorm:"type:varchar(20);not null;default:'valid'" json:"status"`
	Orientation    string    `gorm:"type:varchar(20);not null;default:'landscape'" json:"orientation"`
	Design         JSON      `gorm:"type:longtext" json:"design,omitempty"`
	PreviewImage   string    `gorm:"type:longtext" json:"preview_image,omitempty"`
	PreviewKey     string    `gorm:"type:varchar(255)" json:"-"`
	GroupName      string    `gorm:"type:varchar(255);index:idx_certificates_tenant_group,priority:2" json:"group_name"`
	ShareToken     string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsRevoked reports whether the certificate has left the valid state.
func (c *Certificate) IsRevoked() bool {
	return c.Status == CertificateStatusRevoked
}
