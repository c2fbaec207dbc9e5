// Package dashboard serves the tenant dashboard summary.
package dashboard

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/countersuite/countersuite/internal/auth"
	"github.com/countersuite/countersuite/internal/config"
	"github.com/countersuite/countersuite/internal/db/models"
	"github.com/countersuite/countersuite/internal/web/handler"
)

// Path is the dashboard route path.
const Path = "/dashboard"

// Service is the dashboard handler service.
type Service struct {
	handler.Service
	db *gorm.DB
}

// Handler is the dashboard handler.
var Handler = Service{}

// Init initializes the dashboard handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, mw *auth.Middleware) error {
	if app == nil || cfg == nil || db == nil || mw == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.db = db

	app.Get(Path, mw.RequirePermission(auth.PermDashboardView), s.Get)

	return nil
}

// Get returns headline counts for the acting tenant.
func (s *Service) Get(c *fiber.Ctx) error {
	tenantID := auth.TenantIDFromContext(c)

	var customers, members int64

	if err := s.db.Model(&models.Customer{}).
		Where("tenant_id = ?", tenantID).Count(&customers).Error; err != nil {
		log.Error().Err(err).Msg("dashboard customer count failed")
		return handler.Error(c, fiber.StatusInternalServerError, "INTERNAL", "internal server error")
	}

	if err := s.db.Model(&models.Membership{}).
		Where("tenant_id = ? AND status = ?", tenantID, models.MembershipStatusActive).
		Count(&members).Error; err != nil {
		log.Error().Err(err).Msg("dashboard member count failed")
		return handler.Error(c, fiber.StatusInternalServerError, "INTERNAL", "internal server error")
	}

	return c.JSON(fiber.Map{
		"tenant_id":      tenantID,
		"customers":      customers,
		"active_members": members,
	})
}
