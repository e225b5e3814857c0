package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

const (
	TENANT_STATUS_ACTIVE   = "active"
	TENANT_STATUS_DISABLED = "disabled"
)

// Tenant is an issuing organisation. Certificates, designs and assets are owned by a tenant.
type Tenant struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Name             string     `gorm:"type:varchar(150);not null" json:"name" validate:"required,min=2,max=150"`
	Email            string     `gorm:"type:varchar(200);uniqueIndex;not null" json:"email" validate:"required,email,max=200"`
	Password         string     `gorm:"type:text" json:"-" validate:"required,min=6"`
	CompanyName      string     `gorm:"type:varchar(200)" json:"company_name" validate:"max=200"`
	LogoURL          string     `gorm:"type:varchar(500)" json:"logo_url" validate:"omitempty,max=500"`
	Status           string     `gorm:"type:varchar(20);not null;default:'active'" json:"status" validate:"oneof=active disabled"`
	APIKeyHash       string     `gorm:"type:char(64);index" json:"-"`
	APIKeyPrefix     string     `gorm:"type:varchar(20)" json:"api_key_prefix"`
	APIKeyCreatedAt  *time.Time `json:"api_key_created_at"`
	APIKeyLastUsedAt *time.Time `json:"api_key_last_used_at"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (t *Tenant) Validate() error {
	return validator.New().Struct(t)
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

var apiKeyEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

const apiKeyPrefix = "cfx_"

// IssueAPIKey generates a new API key, stores its hash on the tenant and returns the raw secret.
// Callers must persist the tenant afterwards.
func (t *Tenant) IssueAPIKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	rawKey := apiKeyPrefix + strings.ToLower(apiKeyEncoding.EncodeToString(b))
	if len(rawKey) < 16 {
		return "", fmt.Errorf("api key generation failed: key too short")
	}
	now := time.Now()
	t.APIKeyHash = HashAPIKey(rawKey)
	t.APIKeyPrefix = rawKey[:16]
	t.APIKeyCreatedAt = &now
	t.APIKeyLastUsedAt = nil
	return rawKey, nil
}

// HasActiveAPIKey reports whether the tenant can authenticate with an API key.
func (t *Tenant) HasActiveAPIKey() bool {
	return t != nil && t.APIKeyHash != "" && t.Status == TENANT_STATUS_ACTIVE
}

// HashAPIKey returns the SHA-256 hash for the provided API key.
func HashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(raw)))
	return hex.EncodeToString(sum[:])
}
