package models

import "time"

const (
	AssetTypeImage    = "image"
	AssetTypeElement  = "element"
	AssetTypeTemplate = "template"
)

// Asset is an uploaded library item. Assets without a tenant belong to the shared library.
type Asset struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	TenantID    *uint     `gorm:"index" json:"tenant_id"`
	Type        string    `gorm:"type:varchar(20);not null;default:'image'" json:"type"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	ContentType string    `gorm:"type:varchar(100)" json:"content_type"`
	Data        []byte    `gorm:"type:longblob" json:"-"`
	SizeBytes   int64     `gorm:"type:bigint;not null;default:0" json:"size_bytes"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}
