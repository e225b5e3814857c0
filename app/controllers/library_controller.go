package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/CertFox/internal/pkg/library"
)

func (a *API) HandleCreateDesign(c *fiber.Ctx) error {
	var in library.DesignInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid JSON body")
	}
	design, err := a.Library.CreateDesign(c.UserContext(), currentTenant(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(design)
}

// HandleListDesigns lists the tenant's designs followed by the shared templates.
func (a *API) HandleListDesigns(c *fiber.Ctx) error {
	designs, err := a.Library.ListDesigns(c.UserContext(), currentTenant(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"designs": designs})
}

func (a *API) HandleGetDesign(c *fiber.Ctx) error {
	id, ok := paramUint(c, "id")
	if !ok {
		return badRequest(c, "Invalid design id")
	}
	design, err := a.Library.GetDesign(c.UserContext(), currentTenant(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(design)
}

func (a *API) HandleDeleteDesign(c *fiber.Ctx) error {
	id, ok := paramUint(c, "id")
	if !ok {
		return badRequest(c, "Invalid design id")
	}
	if err := a.Library.DeleteDesign(c.UserContext(), currentTenant(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (a *API) HandleCreateAsset(c *fiber.Ctx) error {
	var in library.AssetInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid JSON body")
	}
	tenantID := currentTenant(c)
	asset, err := a.Library.CreateAsset(c.UserContext(), &tenantID, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(asset)
}

func (a *API) HandleListAssets(c *fiber.Ctx) error {
	assets, err := a.Library.ListAssets(c.UserContext(), currentTenant(c), c.Query("type"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"assets": assets})
}

func (a *API) HandleDeleteAsset(c *fiber.Ctx) error {
	id, ok := paramUint(c, "id")
	if !ok {
		return badRequest(c, "Invalid asset id")
	}
	if err := a.Library.DeleteAsset(c.UserContext(), currentTenant(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
