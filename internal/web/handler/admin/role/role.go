// Package role exposes the tenant role administration API. Edits and deletes
// run through the system-role guard before any write happens.
package role

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/countersuite/countersuite/internal/auth"
	"github.com/countersuite/countersuite/internal/config"
	rolectl "github.com/countersuite/countersuite/internal/db/controller/role"
	"github.com/countersuite/countersuite/internal/web/handler"
)

// Path is the role administration route prefix.
const Path = "/admin/roles"

// Service is the role administration handler service.
type Service struct {
	handler.Service
	db *gorm.DB
}

// Handler is the role administration handler.
var Handler = Service{}

type roleRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Level       int      `json:"level"`
	Permissions []string `json:"permissions"`
}

// Init initializes the role administration handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, mw *auth.Middleware) error {
	if app == nil || cfg == nil || db == nil || mw == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.db = db

	guard := mw.RequirePermission(auth.PermAdminRoles)

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, guard, s.List)
		router.Post(handler.RouterRootPath, guard, s.Create)
		router.Get("/:id", guard, s.Get)
		router.Put("/:id", guard, s.Update)
		router.Delete("/:id", guard, s.Delete)
	})

	// The permission catalog itself, for building role editors.
	app.Get("/admin/permissions", guard, s.Permissions)

	return nil
}

// List returns the tenant's roles.
func (s *Service) List(c *fiber.Ctx) error {
	roles, err := rolectl.List(s.db, auth.TenantIDFromContext(c))
	if err != nil {
		log.Error().Err(err).Msg("role list failed")
		return handler.Error(c, fiber.StatusInternalServerError, "INTERNAL", "internal server error")
	}

	return c.JSON(fiber.Map{"roles": roles})
}

// Permissions returns the closed permission catalog.
func (s *Service) Permissions(c *fiber.Ctx) error {
	keys := auth.CatalogKeys()

	out := make([]fiber.Map, 0, len(keys))
	for _, key := range keys {
		out = append(out, fiber.Map{
			"key":         key,
			"description": auth.Describe(key),
		})
	}

	return c.JSON(fiber.Map{"permissions": out})
}

// Get returns a single role with its permission keys.
func (s *Service) Get(c *fiber.Ctx) error {
	tenantID := auth.TenantIDFromContext(c)

	id, err := parseID(c)
	if err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "INVALID_ID", "invalid role id")
	}

	role, err := rolectl.Get(s.db, tenantID, id)
	if err != nil {
		if errors.Is(err, rolectl.ErrRoleNotFound) {
			return handler.Error(c, fiber.StatusNotFound, "NOT_FOUND", "role not found")
		}

		log.Error().Err(err).Msg("role get failed")

		return handler.Error(c, fiber.StatusInternalServerError, "INTERNAL", "internal server error")
	}

	keys, err := rolectl.Permissions(s.db, tenantID, id)
	if err != nil {
		log.Error().Err(err).Msg("role permissions lookup failed")
		return handler.Error(c, fiber.StatusInternalServerError, "INTERNAL", "internal server error")
	}

	return c.JSON(fiber.Map{"role": role, "permissions": keys})
}

// Create creates a custom role in the tenant.
func (s *Service) Create(c *fiber.Ctx) error {
	var req roleRequest
	if err := c.BodyParser(&req); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	role, err := rolectl.Create(s.db, auth.TenantIDFromContext(c),
		req.Name, req.Description, req.Level, req.Permissions, false)
	if err != nil {
		switch {
		case errors.Is(err, rolectl.ErrRoleNameEmpty), errors.Is(err, auth.ErrUnknownPermissionKey):
			return handler.Error(c, fiber.StatusBadRequest, "INVALID_BODY", err.Error())
		case errors.Is(err, rolectl.ErrRoleNameExists):
			return handler.Error(c, fiber.StatusConflict, "NAME_EXISTS", err.Error())
		default:
			log.Error().Err(err).Msg("role create failed")
			return handler.Error(c, fiber.StatusInternalServerError, "INTERNAL", "internal server error")
		}
	}

	return c.Status(fiber.StatusCreated).JSON(role)
}

// Update updates a role and replaces its permission set.
func (s *Service) Update(c *fiber.Ctx) error {
	tenantID := auth.TenantIDFromContext(c)

	id, err := parseID(c)
	if err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "INVALID_ID", "invalid role id")
	}

	if denied := s.runGuard(c, tenantID, id, auth.RoleOperationEdit); denied != nil {
		return denied
	}

	var req roleRequest
	if err := c.BodyParser(&req); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	role, err := rolectl.Update(s.db, tenantID, id, req.Name, req.Description, req.Level, req.Permissions)
	if err != nil {
		switch {
		case errors.Is(err, rolectl.ErrRoleNotFound):
			return handler.Error(c, fiber.StatusNotFound, "NOT_FOUND", "role not found")
		case errors.Is(err, rolectl.ErrRoleNameEmpty), errors.Is(err, auth.ErrUnknownPermissionKey):
			return handler.Error(c, fiber.StatusBadRequest, "INVALID_BODY", err.Error())
		case errors.Is(err, rolectl.ErrRoleNameExists):
			return handler.Error(c, fiber.StatusConflict, "NAME_EXISTS", err.Error())
		default:
			log.Error().Err(err).Msg("role update failed")
			return handler.Error(c, fiber.StatusInternalServerError, "INTERNAL", "internal server error")
		}
	}

	return c.JSON(role)
}

// Delete deletes a custom role.
func (s *Service) Delete(c *fiber.Ctx) error {
	tenantID := auth.TenantIDFromContext(c)

	id, err := parseID(c)
	if err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "INVALID_ID", "invalid role id")
	}

	if denied := s.runGuard(c, tenantID, id, auth.RoleOperationDelete); denied != nil {
		return denied
	}

	if err := rolectl.Delete(s.db, tenantID, id); err != nil {
		switch {
		case errors.Is(err, rolectl.ErrRoleNotFound):
			return handler.Error(c, fiber.StatusNotFound, "NOT_FOUND", "role not found")
		case errors.Is(err, rolectl.ErrSystemRole):
			return handler.Error(c, fiber.StatusForbidden, "SYSTEM_ROLE", err.Error())
		default:
			log.Error().Err(err).Msg("role delete failed")
			return handler.Error(c, fiber.StatusInternalServerError, "INTERNAL", "internal server error")
		}
	}

	return c.JSON(fiber.Map{"status": "deleted"})
}

// runGuard applies the system-role guard and translates a refusal into the
// HTTP response, nil when the operation may proceed.
func (s *Service) runGuard(c *fiber.Ctx, tenantID, roleID uint64, op auth.RoleOperation) error {
	result, err := auth.ValidateRoleOperation(s.db, roleID, tenantID, op, auth.UserFromContext(c))
	if err != nil {
		if errors.Is(err, auth.ErrRoleNotFound) {
			return handler.Error(c, fiber.StatusNotFound, "NOT_FOUND", "role not found")
		}

		log.Error().Err(err).Msg("system-role guard failed")

		return handler.Error(c, fiber.StatusInternalServerError, "INTERNAL", "internal server error")
	}

	if !result.Allowed {
		return handler.Error(c, fiber.StatusForbidden, "SYSTEM_ROLE", result.Reason)
	}

	return nil
}

func parseID(c *fiber.Ctx) (uint64, error) {
	return strconv.ParseUint(c.Params("id"), 10, 64)
}
