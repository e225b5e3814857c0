package tenantctx

// Locals keys shared by middlewares and controllers
const (
	KeyTenantContext = "TENANT_CONTEXT"
	KeyTenantID      = "tenant_id"
)
