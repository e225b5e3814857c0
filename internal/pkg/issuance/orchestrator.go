// Package issuance drives template-based batch issuance.
package issuance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ManuelReschke/CertFox/app/models"
	"github.com/ManuelReschke/CertFox/app/repository"
	"github.com/ManuelReschke/CertFox/internal/pkg/certificate"
	"github.com/ManuelReschke/CertFox/internal/pkg/env"
	"github.com/ManuelReschke/CertFox/internal/pkg/metrics"
	"github.com/ManuelReschke/CertFox/internal/pkg/quota"
	"github.com/ManuelReschke/CertFox/internal/pkg/renderer"
	"github.com/ManuelReschke/CertFox/internal/pkg/templating"
)

// DefaultDateLayout renders issue dates as day/month/year.
const DefaultDateLayout = "02/01/2006"

// ErrDesignNotFound is returned when the design is missing or not usable by the tenant.
var ErrDesignNotFound = errors.New("design not found")

// Recipient is one line of the recipient list.
type Recipient struct {
	Name  string `json:"name" validate:"required,max=255"`
	Email string `json:"email,omitempty" validate:"omitempty,email,max=255"`
}

// Request describes a batch. A zero IssueDate means today.
type Request struct {
	TenantID    uint        `json:"tenant_id"`
	DesignID    uint        `json:"design_id"`
	Recipients  []Recipient `json:"recipients"`
	GroupName   string      `json:"group_name"`
	ProgramName string      `json:"program_name"`
	IssueDate   time.Time   `json:"issue_date"`
}

// Halt identifies the recipient at which a quota rejection stopped the batch.
type Halt struct {
	Index     int       `json:"index"`
	Recipient Recipient `json:"recipient"`
	Limit     string    `json:"limit_reached"`
	Message   string    `json:"message"`
}

// Result lists the certificates issued in input order. Halt is nil when every
// recipient was issued.
type Result struct {
	Issued []string `json:"issued"`
	Halt   *Halt    `json:"halted_at,omitempty"`
}

// CertificateIssuer creates one certificate.
type CertificateIssuer interface {
	Issue(ctx context.Context, in certificate.IssueInput) (*models.Certificate, error)
}

// Orchestrator issues a batch sequentially: substitute, render, issue, per recipient.
type Orchestrator struct {
	designs    repository.DesignRepository
	issuer     CertificateIssuer
	renderer   renderer.Renderer
	dateLayout string
	now        func() time.Time
	validate   *validator.Validate
}

// NewOrchestrator creates an orchestrator. A nil renderer skips previews.
func NewOrchestrator(designs repository.DesignRepository, issuer CertificateIssuer, r renderer.Renderer) *Orchestrator {
	return &Orchestrator{
		designs:    designs,
		issuer:     issuer,
		renderer:   r,
		dateLayout: env.GetEnv("ISSUE_DATE_LAYOUT", DefaultDateLayout),
		now:        time.Now,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

// DateLayout is the layout used for the {{date}} placeholder.
func (o *Orchestrator) DateLayout() string {
	return o.dateLayout
}

// validateRequest checks every recipient before the first write, so a bad line
// rejects the whole batch.
func (o *Orchestrator) validateRequest(req *Request) error {
	req.ProgramName = strings.TrimSpace(req.ProgramName)
	req.GroupName = strings.TrimSpace(req.GroupName)
	if req.ProgramName == "" {
		return &certificate.ValidationError{Err: errors.New("program name is required")}
	}
	if len(req.Recipients) == 0 {
		return &certificate.ValidationError{Err: errors.New("at least one recipient is required")}
	}
	for i := range req.Recipients {
		req.Recipients[i].Name = strings.TrimSpace(req.Recipients[i].Name)
		req.Recipients[i].Email = strings.TrimSpace(req.Recipients[i].Email)
		if req.Recipients[i].Name == "" {
			return &certificate.ValidationError{Err: fmt.Errorf("recipient %d has no name", i+1)}
		}
		if err := o.validate.Struct(req.Recipients[i]); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) && len(verrs) > 0 {
				err = fmt.Errorf("invalid %s (%s)", strings.ToLower(verrs[0].Field()), verrs[0].Tag())
			}
			return &certificate.ValidationError{Err: fmt.Errorf("recipient %d: %v", i+1, err)}
		}
	}
	return nil
}

// IssueBatch processes recipients in order. A quota rejection halts the batch and
// returns the issued prefix with a Halt. Any other failure aborts with a nil result.
// Cancellation is observed between recipients and returns the issued prefix together
// with the context error.
func (o *Orchestrator) IssueBatch(ctx context.Context, req Request) (*Result, error) {
	if err := o.validateRequest(&req); err != nil {
		return nil, err
	}

	design, err := o.designs.GetByID(ctx, req.DesignID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDesignNotFound
		}
		return nil, fmt.Errorf("load design: %w", err)
	}
	if !design.AccessibleBy(req.TenantID) {
		return nil, ErrDesignNotFound
	}
	if design.Document.IsEmpty() {
		return nil, &certificate.ValidationError{Err: templating.ErrEmptyDocument}
	}

	issueDate := req.IssueDate
	if issueDate.IsZero() {
		issueDate = o.now()
	}
	formattedDate := issueDate.Format(o.dateLayout)

	result := &Result{Issued: make([]string, 0, len(req.Recipients))}
	for i, rcpt := range req.Recipients {
		if err := ctx.Err(); err != nil {
			metrics.BatchFinished(metrics.BatchCanceled)
			return result, err
		}

		id := uuid.NewString()
		doc, err := templating.Substitute(design.Document, templating.Bindings{
			Name:    rcpt.Name,
			Date:    formattedDate,
			Program: req.ProgramName,
			ID:      id,
		})
		if err != nil {
			return nil, o.fail(i, fmt.Errorf("substitute design: %w", err))
		}

		var preview *renderer.Artifact
		if o.renderer != nil {
			preview, err = o.renderer.Render(ctx, doc, design.Orientation)
			if err != nil {
				return nil, o.fail(i, fmt.Errorf("render preview: %w", err))
			}
		}

		cert, err := o.issuer.Issue(ctx, certificate.IssueInput{
			ID:             id,
			TenantID:       req.TenantID,
			RecipientName:  rcpt.Name,
			RecipientEmail: rcpt.Email,
			ProgramName:    req.ProgramName,
			IssueDate:      issueDate,
			GroupName:      req.GroupName,
			Orientation:    design.Orientation,
			Design:         models.JSON(doc),
			Preview:        preview,
		})
		if err != nil {
			var limitErr *quota.LimitError
			if errors.As(err, &limitErr) {
				result.Halt = &Halt{Index: i, Recipient: rcpt, Limit: limitErr.Limit, Message: limitErr.Message}
				metrics.BatchFinished(metrics.BatchHalted)
				log.Infof("[Issuance] tenant %d batch halted at recipient %d/%d: %s",
					req.TenantID, i+1, len(req.Recipients), limitErr.Limit)
				return result, nil
			}
			return nil, o.fail(i, err)
		}
		result.Issued = append(result.Issued, cert.ID)
	}

	metrics.BatchFinished(metrics.BatchCompleted)
	return result, nil
}

func (o *Orchestrator) fail(index int, err error) error {
	metrics.BatchFinished(metrics.BatchFailed)
	log.Errorf("[Issuance] batch aborted at recipient %d: %v", index+1, err)
	return fmt.Errorf("recipient %d: %w", index+1, err)
}
