// Package audit exposes the tenant's access-decision audit trail.
package audit

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/countersuite/countersuite/internal/auth"
	"github.com/countersuite/countersuite/internal/config"
	"github.com/countersuite/countersuite/internal/db/models"
	"github.com/countersuite/countersuite/internal/web/handler"
)

// Path is the audit route prefix.
const Path = "/admin/audit"

// defaultLimit bounds one page of audit entries.
const defaultLimit = 100

// Service is the audit handler service.
type Service struct {
	handler.Service
	db *gorm.DB
}

// Handler is the audit handler.
var Handler = Service{}

// Init initializes the audit handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, mw *auth.Middleware) error {
	if app == nil || cfg == nil || db == nil || mw == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.db = db

	app.Get(Path, mw.RequirePermission(auth.PermAdminAudit), s.List)

	return nil
}

// List returns the tenant's audit entries, newest first. ULID primary keys
// sort chronologically, so ordering by ID is ordering by time.
func (s *Service) List(c *fiber.Ctx) error {
	limit := defaultLimit
	if q := c.Query("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 || n > 1000 {
			return handler.Error(c, fiber.StatusBadRequest, "INVALID_LIMIT", "limit must be between 1 and 1000")
		}

		limit = n
	}

	query := s.db.Where("tenant_id = ?", auth.TenantIDFromContext(c))

	if outcome := c.Query("outcome"); outcome != "" {
		switch models.DecisionOutcome(outcome) {
		case models.OutcomeAllow, models.OutcomeBypass, models.OutcomeDeny:
			query = query.Where("outcome = ?", outcome)
		default:
			return handler.Error(c, fiber.StatusBadRequest, "INVALID_OUTCOME", "unknown outcome filter")
		}
	}

	var entries []models.AuditEntry
	if err := query.Order("id DESC").Limit(limit).Find(&entries).Error; err != nil {
		log.Error().Err(err).Msg("audit list failed")
		return handler.Error(c, fiber.StatusInternalServerError, "INTERNAL", "internal server error")
	}

	return c.JSON(fiber.Map{"entries": entries})
}
