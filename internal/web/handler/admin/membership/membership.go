// Package membership exposes the tenant membership administration API:
// inviting users, changing roles, granting extra permissions and revoking.
package membership

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/countersuite/countersuite/internal/auth"
	"github.com/countersuite/countersuite/internal/config"
	membershipctl "github.com/countersuite/countersuite/internal/db/controller/membership"
	"github.com/countersuite/countersuite/internal/web/handler"
)

// Path is the membership administration route prefix.
const Path = "/admin/members"

// Service is the membership administration handler service.
type Service struct {
	handler.Service
	db *gorm.DB
}

// Handler is the membership administration handler.
var Handler = Service{}

type addRequest struct {
	UserID uint64 `json:"user_id"`
	RoleID uint64 `json:"role_id"`
}

type roleChangeRequest struct {
	RoleID uint64 `json:"role_id"`
}

type permissionsRequest struct {
	Permissions []string `json:"permissions"`
}

// Init initializes the membership administration handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, mw *auth.Middleware) error {
	if app == nil || cfg == nil || db == nil || mw == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.db = db

	guard := mw.RequirePermission(auth.PermAdminMembers)

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, guard, s.List)
		router.Post(handler.RouterRootPath, guard, s.Add)
		router.Get("/:userID", guard, s.Get)
		router.Put("/:userID/role", guard, s.ChangeRole)
		router.Put("/:userID/permissions", guard, s.SetPermissions)
		router.Delete("/:userID", guard, s.Revoke)
	})

	return nil
}

// List returns the tenant's memberships, roles included.
func (s *Service) List(c *fiber.Ctx) error {
	memberships, err := membershipctl.List(s.db, auth.TenantIDFromContext(c))
	if err != nil {
		log.Error().Err(err).Msg("membership list failed")
		return handler.Error(c, fiber.StatusInternalServerError, "INTERNAL", "internal server error")
	}

	return c.JSON(fiber.Map{"members": memberships})
}

// Get returns one membership with its custom permissions.
func (s *Service) Get(c *fiber.Ctx) error {
	tenantID := auth.TenantIDFromContext(c)

	userID, err := parseUserID(c)
	if err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "INVALID_ID", "invalid user id")
	}

	m, err := membershipctl.Get(s.db, tenantID, userID)
	if err != nil {
		if errors.Is(err, membershipctl.ErrMembershipNotFound) {
			return handler.Error(c, fiber.StatusNotFound, "NOT_FOUND", "membership not found")
		}

		log.Error().Err(err).Msg("membership get failed")

		return handler.Error(c, fiber.StatusInternalServerError, "INTERNAL", "internal server error")
	}

	custom, err := membershipctl.CustomPermissions(s.db, tenantID, userID)
	if err != nil {
		log.Error().Err(err).Msg("custom permissions lookup failed")
		return handler.Error(c, fiber.StatusInternalServerError, "INTERNAL", "internal server error")
	}

	return c.JSON(fiber.Map{"membership": m, "custom_permissions": custom})
}

// Add grants a user membership in the tenant.
func (s *Service) Add(c *fiber.Ctx) error {
	var req addRequest
	if err := c.BodyParser(&req); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	m, err := membershipctl.Add(s.db, auth.TenantIDFromContext(c), req.UserID, req.RoleID)
	if err != nil {
		switch {
		case errors.Is(err, membershipctl.ErrUserNotFound),
			errors.Is(err, membershipctl.ErrRoleNotInTenant):
			return handler.Error(c, fiber.StatusBadRequest, "INVALID_BODY", err.Error())
		case errors.Is(err, membershipctl.ErrMembershipExists):
			return handler.Error(c, fiber.StatusConflict, "ALREADY_MEMBER", err.Error())
		default:
			log.Error().Err(err).Msg("membership add failed")
			return handler.Error(c, fiber.StatusInternalServerError, "INTERNAL", "internal server error")
		}
	}

	return c.Status(fiber.StatusCreated).JSON(m)
}

// ChangeRole assigns a different role to a member.
func (s *Service) ChangeRole(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "INVALID_ID", "invalid user id")
	}

	var req roleChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	err = membershipctl.ChangeRole(s.db, auth.TenantIDFromContext(c), userID, req.RoleID)
	if err != nil {
		switch {
		case errors.Is(err, membershipctl.ErrMembershipNotFound):
			return handler.Error(c, fiber.StatusNotFound, "NOT_FOUND", "membership not found")
		case errors.Is(err, membershipctl.ErrRoleNotInTenant):
			return handler.Error(c, fiber.StatusBadRequest, "INVALID_BODY", err.Error())
		default:
			log.Error().Err(err).Msg("membership role change failed")
			return handler.Error(c, fiber.StatusInternalServerError, "INTERNAL", "internal server error")
		}
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

// SetPermissions replaces a member's custom permission set.
func (s *Service) SetPermissions(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "INVALID_ID", "invalid user id")
	}

	var req permissionsRequest
	if err := c.BodyParser(&req); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	err = membershipctl.SetCustomPermissions(s.db, auth.TenantIDFromContext(c), userID, req.Permissions)
	if err != nil {
		switch {
		case errors.Is(err, membershipctl.ErrMembershipNotFound):
			return handler.Error(c, fiber.StatusNotFound, "NOT_FOUND", "membership not found")
		case errors.Is(err, auth.ErrUnknownPermissionKey):
			return handler.Error(c, fiber.StatusBadRequest, "INVALID_BODY", err.Error())
		default:
			log.Error().Err(err).Msg("custom permissions update failed")
			return handler.Error(c, fiber.StatusInternalServerError, "INTERNAL", "internal server error")
		}
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

// Revoke revokes a member's access to the tenant.
func (s *Service) Revoke(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "INVALID_ID", "invalid user id")
	}

	if err := membershipctl.Revoke(s.db, auth.TenantIDFromContext(c), userID); err != nil {
		if errors.Is(err, membershipctl.ErrMembershipNotFound) {
			return handler.Error(c, fiber.StatusNotFound, "NOT_FOUND", "membership not found")
		}

		log.Error().Err(err).Msg("membership revoke failed")

		return handler.Error(c, fiber.StatusInternalServerError, "INTERNAL", "internal server error")
	}

	return c.JSON(fiber.Map{"status": "revoked"})
}

func parseUserID(c *fiber.Ctx) (uint64, error) {
	return strconv.ParseUint(c.Params("userID"), 10, 64)
}
