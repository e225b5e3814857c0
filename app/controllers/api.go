package controllers

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/CertFox/internal/pkg/billing"
	"github.com/ManuelReschke/CertFox/internal/pkg/certificate"
	"github.com/ManuelReschke/CertFox/internal/pkg/issuance"
	"github.com/ManuelReschke/CertFox/internal/pkg/jobqueue"
	"github.com/ManuelReschke/CertFox/internal/pkg/library"
	"github.com/ManuelReschke/CertFox/internal/pkg/quota"
	"github.com/ManuelReschke/CertFox/internal/pkg/renderer"
	"github.com/ManuelReschke/CertFox/internal/pkg/tenantctx"
	"github.com/ManuelReschke/CertFox/internal/pkg/tenants"
)

// API bundles the services behind the HTTP handlers. Queue and Renderer are optional.
type API struct {
	Certificates *certificate.Service
	Batches      *issuance.Orchestrator
	Queue        *jobqueue.Queue
	Library      *library.Service
	Billing      *billing.Service
	Tenants      *tenants.Service
	Resolver     *quota.Resolver
	Renderer     renderer.Renderer
}

func currentTenant(c *fiber.Ctx) uint {
	return tenantctx.TenantID(c)
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": message})
}

// respondError maps service errors onto the API's error responses.
func respondError(c *fiber.Ctx, err error) error {
	var limitErr *quota.LimitError
	var validationErr *certificate.ValidationError
	var planErr *billing.InvalidPlanError

	switch {
	case errors.As(err, &limitErr):
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
			"error":         "quota_exceeded",
			"message":       limitErr.Message,
			"limit_reached": limitErr.Limit,
		})
	case errors.Is(err, certificate.ErrNotFound),
		errors.Is(err, library.ErrNotFound),
		errors.Is(err, billing.ErrPlanNotFound),
		errors.Is(err, issuance.ErrDesignNotFound),
		errors.Is(err, jobqueue.ErrJobNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": err.Error()})
	case errors.As(err, &validationErr), errors.As(err, &planErr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	case errors.Is(err, tenants.ErrEmailTaken):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": err.Error()})
	case errors.Is(err, tenants.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid email or password"})
	case errors.Is(err, tenants.ErrTenantDisabled):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Tenant disabled"})
	}

	log.Errorf("[API] %s %s failed: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Request failed"})
}

// parseDate accepts YYYY-MM-DD or RFC 3339. An empty value yields the zero time.
func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

func paramUint(c *fiber.Ctx, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}
