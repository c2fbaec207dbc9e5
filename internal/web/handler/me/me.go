// Package me exposes the authenticated principal's own view: identity,
// acting tenant and effective permission set.
package me

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/countersuite/countersuite/internal/auth"
	"github.com/countersuite/countersuite/internal/config"
	"github.com/countersuite/countersuite/internal/web/handler"
)

// Path is the route path.
const Path = "/me"

// Service is the me handler service.
type Service struct {
	handler.Service
}

// Handler is the me handler.
var Handler = Service{}

// Init initializes the me handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, mw *auth.Middleware) error {
	if app == nil || cfg == nil || db == nil || mw == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	app.Get(Path, mw.Require(nil, auth.Options{AllowNoTenant: true}), s.Get)

	return nil
}

// Get returns the principal, the acting tenant and the effective permissions
// the permission middleware resolved for this request.
func (s *Service) Get(c *fiber.Ctx) error {
	user := auth.UserFromContext(c)
	if user == nil {
		return handler.Error(c, fiber.StatusUnauthorized, "AUTH_REQUIRED", "authentication required")
	}

	perms := auth.PermissionsFromContext(c)
	if perms == nil {
		perms = []string{}
	}

	return c.JSON(fiber.Map{
		"user": fiber.Map{
			"id":           user.ID,
			"email":        user.Email,
			"display_name": user.DisplayName,
			"global_role":  user.GlobalRole,
		},
		"tenant_id":   auth.TenantIDFromContext(c),
		"permissions": perms,
	})
}
