package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// HandleListPlans returns the active plans. No authentication required.
func (a *API) HandleListPlans(c *fiber.Ctx) error {
	plans, err := a.Billing.ListPublicPlans(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"plans": plans})
}

// HandleGetUsage returns the tenant's effective plan together with current usage.
func (a *API) HandleGetUsage(c *fiber.Ctx) error {
	snap, err := a.Resolver.Resolve(c.UserContext(), currentTenant(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(snap)
}

type changePlanRequest struct {
	PlanID string `json:"plan_id"`
}

// HandleChangePlan switches the tenant to another active plan immediately.
func (a *API) HandleChangePlan(c *fiber.Ctx) error {
	var req changePlanRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON body")
	}
	if strings.TrimSpace(req.PlanID) == "" {
		return badRequest(c, "plan_id is required")
	}
	res, err := a.Billing.ChangePlan(c.UserContext(), currentTenant(c), req.PlanID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

type apiKeyRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleIssueAPIKey exchanges email and password for a fresh API key. The previous
// key stops working.
func (a *API) HandleIssueAPIKey(c *fiber.Ctx) error {
	var req apiKeyRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON body")
	}
	tenant, key, err := a.Tenants.IssueAPIKey(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"tenant_id":      tenant.ID,
		"api_key":        key,
		"api_key_prefix": tenant.APIKeyPrefix,
	})
}
