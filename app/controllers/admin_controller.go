package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/CertFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/CertFox/internal/pkg/library"
	"github.com/ManuelReschke/CertFox/internal/pkg/tenants"
)

// HandleAdminCreateTenant registers a tenant and returns its first API key.
func (a *API) HandleAdminCreateTenant(c *fiber.Ctx) error {
	var in tenants.RegisterInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid JSON body")
	}
	reg, err := a.Tenants.Register(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(reg)
}

func (a *API) HandleAdminCreatePlan(c *fiber.Ctx) error {
	var plan entitlements.Plan
	if err := c.BodyParser(&plan); err != nil {
		return badRequest(c, "Invalid plan definition")
	}
	saved, err := a.Billing.SavePlan(c.UserContext(), plan)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(saved)
}

// HandleAdminUpdatePlan replaces a plan definition. The id comes from the path.
func (a *API) HandleAdminUpdatePlan(c *fiber.Ctx) error {
	var plan entitlements.Plan
	if err := c.BodyParser(&plan); err != nil {
		return badRequest(c, "Invalid plan definition")
	}
	plan.ID = c.Params("id")
	saved, err := a.Billing.SavePlan(c.UserContext(), plan)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(saved)
}

func (a *API) HandleAdminDeactivatePlan(c *fiber.Ctx) error {
	if err := a.Billing.DeactivatePlan(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleAdminCreateTemplate adds a shared design visible to every tenant.
func (a *API) HandleAdminCreateTemplate(c *fiber.Ctx) error {
	var in library.DesignInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid JSON body")
	}
	design, err := a.Library.CreateTemplate(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(design)
}

// HandleAdminCreateAsset adds an unattributed asset. It counts against no tenant.
func (a *API) HandleAdminCreateAsset(c *fiber.Ctx) error {
	var in library.AssetInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid JSON body")
	}
	asset, err := a.Library.CreateAsset(c.UserContext(), nil, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(asset)
}
