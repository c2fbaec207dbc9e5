// Package tenants exposes tenant administration. Provisioning and status
// changes are instance-level routes: they live on the root domain and only a
// superadmin passes the bypass policy there. The tenant's own record is
// additionally readable inside the tenant by anyone holding admin.tenant.
package tenants

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/countersuite/countersuite/internal/auth"
	"github.com/countersuite/countersuite/internal/config"
	tenantsctl "github.com/countersuite/countersuite/internal/db/controller/tenants"
	"github.com/countersuite/countersuite/internal/db/models"
	"github.com/countersuite/countersuite/internal/tenant"
	"github.com/countersuite/countersuite/internal/web/handler"
)

const (
	// Path is the instance-level tenant administration route prefix.
	Path = "/admin/tenants"

	// SelfPath is the tenant-scoped view of the tenant's own record.
	SelfPath = "/admin/tenant"
)

// Service is the tenant administration handler service.
type Service struct {
	handler.Service
	db        *gorm.DB
	resolver  *tenant.Resolver
	validator *validator.Validate
}

// Handler is the tenant administration handler.
var Handler = Service{}

type provisionRequest struct {
	Name      string `json:"name"      validate:"required,max=255"`
	Subdomain string `json:"subdomain" validate:"required,hostname"`
	Plan      string `json:"plan"      validate:"max=64"`
	OwnerID   uint64 `json:"owner_id"`
}

type statusRequest struct {
	Status models.TenantStatus `json:"status"`
}

// Init initializes the tenant administration handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, mw *auth.Middleware, resolver *tenant.Resolver) error {
	if app == nil || cfg == nil || db == nil || mw == nil || resolver == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.db = db
	s.resolver = resolver
	s.validator = validator.New()

	// Instance level. No tenant context, superadmin bypass only: a regular
	// member resolves to an empty permission set here and is denied.
	instance := mw.Require([]string{auth.PermAdminTenant}, auth.Options{AllowNoTenant: true})

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, instance, s.List)
		router.Post(handler.RouterRootPath, instance, s.Provision)
		router.Put("/:subdomain/status", instance, s.SetStatus)
	})

	// Tenant scoped self view.
	app.Get(SelfPath, mw.RequirePermission(auth.PermAdminTenant), s.Self)

	return nil
}

// List returns all tenants.
func (s *Service) List(c *fiber.Ctx) error {
	all, err := tenantsctl.List(s.db)
	if err != nil {
		log.Error().Err(err).Msg("tenant list failed")
		return handler.Error(c, fiber.StatusInternalServerError, "INTERNAL", "internal server error")
	}

	return c.JSON(fiber.Map{"tenants": all})
}

// Provision creates a tenant with its system roles and optional owner.
func (s *Service) Provision(c *fiber.Ctx) error {
	var req provisionRequest
	if err := c.BodyParser(&req); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	if err := s.validator.Struct(req); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "INVALID_BODY", "name and a valid subdomain are required")
	}

	created, err := tenantsctl.Provision(s.db, req.Name, req.Subdomain, req.Plan, req.OwnerID)
	if err != nil {
		switch {
		case errors.Is(err, tenantsctl.ErrTenantNameEmpty),
			errors.Is(err, tenantsctl.ErrSubdomainInvalid):
			return handler.Error(c, fiber.StatusBadRequest, "INVALID_BODY", err.Error())
		case errors.Is(err, tenantsctl.ErrSubdomainExists):
			return handler.Error(c, fiber.StatusConflict, "SUBDOMAIN_EXISTS", err.Error())
		default:
			log.Error().Err(err).Msg("tenant provision failed")
			return handler.Error(c, fiber.StatusInternalServerError, "INTERNAL", "internal server error")
		}
	}

	log.Info().Str("subdomain", created.Subdomain).Uint64("tenant_id", created.ID).Msg("tenant provisioned")

	return c.Status(fiber.StatusCreated).JSON(created)
}

// SetStatus updates a tenant's status and drops it from the resolver cache so
// suspension takes effect within the cache TTL everywhere and immediately here.
func (s *Service) SetStatus(c *fiber.Ctx) error {
	t, err := tenantsctl.BySubdomain(s.db, c.Params("subdomain"))
	if err != nil {
		if errors.Is(err, tenantsctl.ErrTenantNotFound) {
			return handler.Error(c, fiber.StatusNotFound, "NOT_FOUND", "tenant not found")
		}

		log.Error().Err(err).Msg("tenant lookup failed")

		return handler.Error(c, fiber.StatusInternalServerError, "INTERNAL", "internal server error")
	}

	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	switch req.Status {
	case models.TenantStatusActive, models.TenantStatusInactive,
		models.TenantStatusSuspended, models.TenantStatusArchived:
	default:
		return handler.Error(c, fiber.StatusBadRequest, "INVALID_BODY", "unknown tenant status")
	}

	if err := tenantsctl.SetStatus(s.db, t.ID, req.Status); err != nil {
		log.Error().Err(err).Msg("tenant status update failed")
		return handler.Error(c, fiber.StatusInternalServerError, "INTERNAL", "internal server error")
	}

	s.resolver.Invalidate(t)

	log.Info().Str("subdomain", t.Subdomain).Str("status", string(req.Status)).Msg("tenant status changed")

	return c.JSON(fiber.Map{"status": "ok"})
}

// Self returns the acting tenant's own record.
func (s *Service) Self(c *fiber.Ctx) error {
	t, err := tenantsctl.ByID(s.db, auth.TenantIDFromContext(c))
	if err != nil {
		log.Error().Err(err).Msg("tenant self lookup failed")
		return handler.Error(c, fiber.StatusInternalServerError, "INTERNAL", "internal server error")
	}

	return c.JSON(t)
}
