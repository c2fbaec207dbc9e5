// Package settings exposes tenant-scoped settings administration.
package settings

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/countersuite/countersuite/internal/auth"
	"github.com/countersuite/countersuite/internal/config"
	"github.com/countersuite/countersuite/internal/db/controller/setting"
	"github.com/countersuite/countersuite/internal/web/handler"
)

// Path is the settings administration route prefix.
const Path = "/admin/settings"

// Service is the settings administration handler service.
type Service struct {
	handler.Service
	db *gorm.DB
}

// Handler is the settings administration handler.
var Handler = Service{}

type setRequest struct {
	Value string `json:"value"`
}

// Init initializes the settings administration handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, mw *auth.Middleware) error {
	if app == nil || cfg == nil || db == nil || mw == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.db = db

	guard := mw.RequirePermission(auth.PermAdminSettings)

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, guard, s.List)
		router.Get("/:name", guard, s.Get)
		router.Put("/:name", guard, s.Set)
		router.Delete("/:name", guard, s.Delete)
	})

	return nil
}

// List returns all settings of the tenant.
func (s *Service) List(c *fiber.Ctx) error {
	settings, err := setting.GetAll(s.db, auth.TenantIDFromContext(c))
	if err != nil {
		log.Error().Err(err).Msg("settings list failed")
		return handler.Error(c, fiber.StatusInternalServerError, "INTERNAL", "internal server error")
	}

	out := make([]fiber.Map, 0, len(settings))
	for _, entry := range settings {
		out = append(out, fiber.Map{"name": entry.Name, "value": string(entry.Value)})
	}

	return c.JSON(fiber.Map{"settings": out})
}

// Get returns a single setting.
func (s *Service) Get(c *fiber.Ctx) error {
	entry, err := setting.Get(s.db, auth.TenantIDFromContext(c), c.Params("name"))
	if err != nil {
		switch {
		case errors.Is(err, setting.ErrSettingNotFound):
			return handler.Error(c, fiber.StatusNotFound, "NOT_FOUND", "setting not found")
		case errors.Is(err, setting.ErrSettingNameEmpty):
			return handler.Error(c, fiber.StatusBadRequest, "INVALID_BODY", err.Error())
		default:
			log.Error().Err(err).Msg("setting get failed")
			return handler.Error(c, fiber.StatusInternalServerError, "INTERNAL", "internal server error")
		}
	}

	return c.JSON(fiber.Map{"name": entry.Name, "value": string(entry.Value)})
}

// Set creates or updates a setting.
func (s *Service) Set(c *fiber.Ctx) error {
	var req setRequest
	if err := c.BodyParser(&req); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	entry, err := setting.Set(s.db, auth.TenantIDFromContext(c), c.Params("name"), []byte(req.Value))
	if err != nil {
		if errors.Is(err, setting.ErrSettingNameEmpty) {
			return handler.Error(c, fiber.StatusBadRequest, "INVALID_BODY", err.Error())
		}

		log.Error().Err(err).Msg("setting set failed")

		return handler.Error(c, fiber.StatusInternalServerError, "INTERNAL", "internal server error")
	}

	return c.JSON(fiber.Map{"name": entry.Name, "value": string(entry.Value)})
}

// Delete removes a setting.
func (s *Service) Delete(c *fiber.Ctx) error {
	err := setting.Delete(s.db, auth.TenantIDFromContext(c), c.Params("name"))
	if err != nil {
		switch {
		case errors.Is(err, setting.ErrSettingNotFound):
			return handler.Error(c, fiber.StatusNotFound, "NOT_FOUND", "setting not found")
		case errors.Is(err, setting.ErrSettingNameEmpty):
			return handler.Error(c, fiber.StatusBadRequest, "INVALID_BODY", err.Error())
		default:
			log.Error().Err(err).Msg("setting delete failed")
			return handler.Error(c, fiber.StatusInternalServerError, "INTERNAL", "internal server error")
		}
	}

	return c.JSON(fiber.Map{"status": "deleted"})
}
