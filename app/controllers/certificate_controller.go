package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ManuelReschke/CertFox/app/models"
	"github.com/ManuelReschke/CertFox/internal/pkg/certificate"
	"github.com/ManuelReschke/CertFox/internal/pkg/templating"
)

type issueCertificateRequest struct {
	RecipientName  string      `json:"recipient_name"`
	RecipientEmail string      `json:"recipient_email"`
	ProgramName    string      `json:"program_name"`
	IssueDate      string      `json:"issue_date"`
	GroupName      string      `json:"group_name"`
	Orientation    string      `json:"orientation"`
	Design         models.JSON `json:"design"`
}

type editCertificateRequest struct {
	RecipientName  *string `json:"recipient_name"`
	RecipientEmail *string `json:"recipient_email"`
	ProgramName    *string `json:"program_name"`
	IssueDate      *string `json:"issue_date"`
}

// HandleIssueCertificate issues a single certificate. A design document has its
// placeholders filled and is rendered to a preview when a renderer is configured.
func (a *API) HandleIssueCertificate(c *fiber.Ctx) error {
	var req issueCertificateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON body")
	}
	issueDate, err := parseDate(req.IssueDate)
	if err != nil {
		return badRequest(c, "issue_date must be YYYY-MM-DD or RFC 3339")
	}
	if issueDate.IsZero() {
		issueDate = time.Now()
	}

	in := certificate.IssueInput{
		ID:             uuid.NewString(),
		TenantID:       currentTenant(c),
		RecipientName:  req.RecipientName,
		RecipientEmail: req.RecipientEmail,
		ProgramName:    req.ProgramName,
		IssueDate:      issueDate,
		GroupName:      req.GroupName,
		Orientation:    req.Orientation,
	}
	if err := a.Certificates.Validate(&in); err != nil {
		return respondError(c, err)
	}
	if !req.Design.IsEmpty() {
		doc, err := templating.Substitute(req.Design, templating.Bindings{
			Name:    in.RecipientName,
			Date:    issueDate.Format(a.dateLayout()),
			Program: in.ProgramName,
			ID:      in.ID,
		})
		if err != nil {
			return respondError(c, &certificate.ValidationError{Err: err})
		}
		in.Design = models.JSON(doc)
		if a.Renderer != nil {
			preview, err := a.Renderer.Render(c.UserContext(), doc, in.Orientation)
			if err != nil {
				return respondError(c, err)
			}
			in.Preview = preview
		}
	}

	cert, err := a.Certificates.Issue(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(certificate.ListItem{Certificate: *cert, ShareToken: cert.ShareToken})
}

func (a *API) dateLayout() string {
	if a.Batches != nil {
		return a.Batches.DateLayout()
	}
	return "02/01/2006"
}

// HandleListCertificates lists the tenant's certificates, newest first.
func (a *API) HandleListCertificates(c *fiber.Ctx) error {
	items, err := a.Certificates.List(c.UserContext(), currentTenant(c), c.Query("group"), c.QueryInt("offset", 0), c.QueryInt("limit", 50))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"certificates": items})
}

// HandleEditCertificate changes recipient, program or date of an owned certificate.
func (a *API) HandleEditCertificate(c *fiber.Ctx) error {
	var req editCertificateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON body")
	}
	in := certificate.EditInput{
		RecipientName:  req.RecipientName,
		RecipientEmail: req.RecipientEmail,
		ProgramName:    req.ProgramName,
	}
	if req.IssueDate != nil {
		d, err := parseDate(*req.IssueDate)
		if err != nil || d.IsZero() {
			return badRequest(c, "issue_date must be YYYY-MM-DD or RFC 3339")
		}
		in.IssueDate = &d
	}

	cert, err := a.Certificates.Edit(c.UserContext(), currentTenant(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(cert)
}

// HandleRevokeCertificate marks an owned certificate revoked.
func (a *API) HandleRevokeCertificate(c *fiber.Ctx) error {
	cert, err := a.Certificates.Revoke(c.UserContext(), currentTenant(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(cert)
}

func (a *API) HandleDeleteCertificate(c *fiber.Ctx) error {
	if err := a.Certificates.Delete(c.UserContext(), currentTenant(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandlePublicCertificate serves the verification view. The share token in the query
// unlocks the owner view.
func (a *API) HandlePublicCertificate(c *fiber.Ctx) error {
	view, err := a.Certificates.Get(c.UserContext(), c.Params("id"), c.Query("token"))
	if err != nil {
		if errors.Is(err, certificate.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Certificate not found"})
		}
		return respondError(c, err)
	}
	return c.JSON(view)
}

// HandlePreview renders a design document without issuing anything.
func (a *API) HandlePreview(c *fiber.Ctx) error {
	if a.Renderer == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{"error": "not_implemented", "message": "Preview rendering is disabled"})
	}
	var req issueCertificateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON body")
	}
	doc, err := templating.Substitute(req.Design, templating.Bindings{Name: req.RecipientName, Program: req.ProgramName})
	if err != nil {
		return respondError(c, &certificate.ValidationError{Err: err})
	}
	art, err := a.Renderer.Render(c.UserContext(), doc, req.Orientation)
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, art.ContentType)
	return c.Send(art.Data)
}
