package certificate

import (
	"time"

	"github.com/ManuelReschke/CertFox/app/models"
	"github.com/ManuelReschke/CertFox/internal/pkg/entitlements"
)

const (
	AccessOwner  = "owner"
	AccessPublic = "public"
)

// Issuer carries the branding of the issuing tenant.
type Issuer struct {
	TenantID    uint                  `json:"tenant_id"`
	CompanyName string                `json:"company_name,omitempty"`
	LogoURL     string                `json:"logo_url,omitempty"`
	PlanID      string                `json:"plan_id"`
	Features    entitlements.Features `json:"features"`
}

// View is either an OwnerView or a PublicView.
type View interface {
	Level() string
}

// PublicView is what anyone holding only the certificate id may see.
type PublicView struct {
	ID            string    `json:"id"`
	RecipientName string    `json:"recipient_name"`
	ProgramName   string    `json:"program_name"`
	IssueDate     string    `json:"issue_date"`
	Status        string    `json:"status"`
	Orientation   string    `json:"orientation"`
	GroupName     string    `json:"group_name,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	Issuer        Issuer    `json:"issuer"`
	AccessLevel   string    `json:"access_level"`
}

func (v *PublicView) Level() string { return v.AccessLevel }

// OwnerView adds the rendered design and preview, unlocked by the share token.
type OwnerView struct {
	PublicView
	RecipientEmail string      `json:"recipient_email,omitempty"`
	Design         models.JSON `json:"design"`
	PreviewImage   string      `json:"preview_image,omitempty"`
}

// ListItem is a certificate as listed to its owning tenant.
type ListItem struct {
	models.Certificate
	ShareToken string `json:"share_token"`
}

const dateLayout = "2006-01-02"

func newPublicView(c *models.Certificate, issuer Issuer) *PublicView {
	return &PublicView{
		ID:            c.ID,
		RecipientName: c.RecipientName,
		ProgramName:   c.ProgramName,
		IssueDate:     c.IssueDate.Format(dateLayout),
		Status:        c.Status,
		Orientation:   c.Orientation,
		GroupName:     c.GroupName,
		CreatedAt:     c.CreatedAt,
		Issuer:        issuer,
		AccessLevel:   AccessPublic,
	}
}

func newOwnerView(c *models.Certificate, issuer Issuer) *OwnerView {
	pv := newPublicView(c, issuer)
	pv.AccessLevel = AccessOwner
	return &OwnerView{
		PublicView:     *pv,
		RecipientEmail: c.RecipientEmail,
		Design:         c.Design,
		PreviewImage:   c.PreviewImage,
	}
}
