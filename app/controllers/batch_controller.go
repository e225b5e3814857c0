package controllers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/CertFox/internal/pkg/issuance"
)

type batchRequest struct {
	DesignID    uint                 `json:"design_id"`
	Recipients  []issuance.Recipient `json:"recipients"`
	GroupName   string               `json:"group_name"`
	ProgramName string               `json:"program_name"`
	IssueDate   string               `json:"issue_date"`
}

// HandleIssueBatch issues certificates for a recipient list. With ?async=true the
// batch is queued and a job is returned with 202.
func (a *API) HandleIssueBatch(c *fiber.Ctx) error {
	var body batchRequest
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid JSON body")
	}
	issueDate, err := parseDate(body.IssueDate)
	if err != nil {
		return badRequest(c, "issue_date must be YYYY-MM-DD or RFC 3339")
	}
	req := issuance.Request{
		TenantID:    currentTenant(c),
		DesignID:    body.DesignID,
		Recipients:  body.Recipients,
		GroupName:   body.GroupName,
		ProgramName: body.ProgramName,
		IssueDate:   issueDate,
	}

	if c.QueryBool("async", false) {
		if a.Queue == nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "queue_unavailable", "message": "Asynchronous batches are disabled"})
		}
		if len(req.Recipients) == 0 {
			return badRequest(c, "At least one recipient is required")
		}
		job, err := a.Queue.Enqueue(c.UserContext(), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(job)
	}

	result, err := a.Batches.IssueBatch(c.UserContext(), req)
	if err != nil {
		if result != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			return respondInterrupted(c, req.TenantID, result, err)
		}
		return respondError(c, err)
	}
	return c.JSON(result)
}

// respondInterrupted reports a batch stopped by cancellation. The certificates issued
// before the stop are committed, so their ids are returned with the error.
func respondInterrupted(c *fiber.Ctx, tenantID uint, result *issuance.Result, err error) error {
	log.Warnf("[API] tenant %d batch interrupted after %d certificates: %v", tenantID, len(result.Issued), err)
	return c.Status(fiber.StatusRequestTimeout).JSON(fiber.Map{
		"error":   "batch_interrupted",
		"message": "Batch stopped before all recipients were issued",
		"issued":  result.Issued,
	})
}

// HandleGetBatch returns the state of a queued batch owned by the tenant.
func (a *API) HandleGetBatch(c *fiber.Ctx) error {
	if a.Queue == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Batch not found"})
	}
	job, err := a.Queue.GetJob(c.UserContext(), currentTenant(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(job)
}
