// Package tenantctx carries the authenticated tenant through a request.
package tenantctx

import "github.com/gofiber/fiber/v2"

// TenantContext represents the tenant a request acts for
type TenantContext struct {
	TenantID      uint   `json:"tenant_id"`
	Name          string `json:"name"`
	Authenticated bool   `json:"authenticated"`
}

// Set stores the tenant context on the request.
func Set(c *fiber.Ctx, tc TenantContext) {
	c.Locals(KeyTenantContext, tc)
	c.Locals(KeyTenantID, tc.TenantID)
}

// Get returns the tenant context, or an unauthenticated one if none is set
func Get(c *fiber.Ctx) TenantContext {
	if tc, ok := c.Locals(KeyTenantContext).(TenantContext); ok {
		return tc
	}
	return TenantContext{}
}

// TenantID returns the current tenant id, or 0 outside authenticated routes
func TenantID(c *fiber.Ctx) uint {
	return Get(c).TenantID
}
