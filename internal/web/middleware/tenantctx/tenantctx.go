// Package tenantctx provides the Fiber middleware that resolves the acting
// tenant for every request and injects it into the request locals.
//
// Tenant identity comes from trusted context only: the session's pinned
// tenant first, then the X-Tenant header, then the request subdomain. A
// tenant identifier in a request payload is never a source; for write
// requests a payload tenant that disagrees with the resolved tenant is
// rejected before any handler logic executes.
package tenantctx

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/countersuite/countersuite/internal/auth"
	"github.com/countersuite/countersuite/internal/db/models"
	"github.com/countersuite/countersuite/internal/tenant"
	"github.com/countersuite/countersuite/internal/web/session"
)

// HeaderTenant is the explicit tenant header, carrying a subdomain.
const HeaderTenant = "X-Tenant"

// Config configures the tenant context middleware.
type Config struct {
	// Resolver performs the tenant lookups.
	Resolver *tenant.Resolver
	// Skip lists path prefixes exempt from tenant resolution (health, metrics).
	Skip []string
}

// payloadTenant is the shape sniffed out of write payloads for the
// tenant-confusion check.
type payloadTenant struct {
	TenantID *uint64 `json:"tenant_id"`
}

// New creates the tenant context middleware.
func New(cfg Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		for _, prefix := range cfg.Skip {
			if len(c.Path()) >= len(prefix) && c.Path()[:len(prefix)] == prefix {
				return c.Next()
			}
		}

		t, err := resolve(c, cfg.Resolver)
		if errors.Is(err, tenant.ErrNoCandidate) {
			// Root-domain request. No tenant locals are set; routes that are
			// not instance-level fail closed in the permission middleware.
			return c.Next()
		}

		if err != nil {
			// Generic denial: do not reveal unknown vs suspended.
			log.Warn().Err(err).
				Str("host", c.Hostname()).
				Str("path", c.Path()).
				Msg("tenant resolution failed")

			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    "TENANT_ACCESS_DENIED",
					"message": "tenant access denied",
				},
			})
		}

		if err := rejectMismatch(c, t); err != nil {
			log.Warn().
				Uint64("tenant_id", t.ID).
				Str("path", c.Path()).
				Msg("payload tenant mismatch rejected")

			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    "TENANT_MISMATCH",
					"message": "tenant identifier in payload does not match request context",
				},
			})
		}

		c.Locals(auth.LocalTenant, t)
		c.Locals(auth.LocalTenantID, t.ID)

		return c.Next()
	}
}

// resolve determines the acting tenant. The session's pinned tenant is the
// most trusted source and wins over transport hints.
func resolve(c *fiber.Ctx, r *tenant.Resolver) (*models.Tenant, error) {
	if sessionID := c.Cookies(session.CookieName); sessionID != "" {
		sessData := new(session.Data)
		if err := sessData.Read(sessionID); err == nil && sessData.Valid() && sessData.TenantID > 0 {
			return r.ResolveID(sessData.TenantID)
		}
	}

	if headerSub := c.Get(HeaderTenant); headerSub != "" {
		return r.ResolveSubdomain(headerSub)
	}

	return r.ResolveSubdomain(r.SubdomainFromHost(c.Hostname()))
}

// rejectMismatch enforces the tenant-confusion policy on write requests.
func rejectMismatch(c *fiber.Ctx, t *models.Tenant) error {
	switch c.Method() {
	case fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch, fiber.MethodDelete:
	default:
		return nil
	}

	if q := c.Query("tenant_id"); q != "" {
		id, err := strconv.ParseUint(q, 10, 64)
		if err != nil || id != t.ID {
			return tenant.ErrTenantMismatch
		}
	}

	body := c.Body()
	if len(body) == 0 {
		return nil
	}

	var payload payloadTenant
	if err := json.Unmarshal(body, &payload); err != nil {
		// Not a JSON object; the handler's own parser will deal with it.
		return nil
	}

	if payload.TenantID != nil && *payload.TenantID != t.ID {
		return tenant.ErrTenantMismatch
	}

	return nil
}
