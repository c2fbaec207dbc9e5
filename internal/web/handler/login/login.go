// Package login implements credential login. A successful login creates a
// server-side session pinned to the tenant the request was made against;
// later requests cannot move the session to another tenant.
package login

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/countersuite/countersuite/internal/auth"
	"github.com/countersuite/countersuite/internal/config"
	"github.com/countersuite/countersuite/internal/web/handler"
	"github.com/countersuite/countersuite/internal/web/session"
)

const (
	// Path is the login route path.
	Path = "/login"
)

// Service is the login handler service.
type Service struct {
	handler.Service
	cfg   *config.Config
	db    *gorm.DB
	local *auth.LocalProvider
	perms *auth.Service
}

// Handler is the login handler.
var Handler = Service{}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db
	s.local = auth.NewLocalProvider(db)
	s.perms = auth.NewService(db)

	app.Post(Path, s.Post)

	return nil
}

// Post handles credential login.
func (s *Service) Post(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	if req.Email == "" || req.Password == "" {
		return handler.Error(c, fiber.StatusBadRequest, "INVALID_BODY", "email and password are required")
	}

	user, err := s.local.Authenticate(req.Email, req.Password)
	if err != nil {
		// One answer for every failure mode so responses cannot be used to
		// probe which accounts exist.
		log.Warn().Str("email", req.Email).Msg("login rejected")

		return handler.Error(c, fiber.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")
	}

	tenantID := auth.TenantIDFromContext(c)

	// Logging in against a tenant requires an active membership there.
	// Superadmins may log in anywhere, including the root domain.
	if tenantID != 0 && !user.IsSuperAdmin() {
		m, err := s.perms.ActiveMembership(user.ID, tenantID)
		if err != nil {
			log.Error().Err(err).Msg("membership lookup failed during login")
			return handler.Error(c, fiber.StatusInternalServerError, "INTERNAL", "internal server error")
		}

		if m == nil {
			log.Warn().Uint64("user_id", user.ID).Uint64("tenant_id", tenantID).Msg("login without membership rejected")
			return handler.Error(c, fiber.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")
		}
	}

	if tenantID == 0 && !user.IsSuperAdmin() {
		return handler.Error(c, fiber.StatusForbidden, "TENANT_ACCESS_DENIED", "tenant access denied")
	}

	sessionID, err := session.GenerateSessionID()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate session ID")
		return handler.Error(c, fiber.StatusInternalServerError, "INTERNAL", "internal server error")
	}

	userSession := &session.Data{
		User:     *user,
		TenantID: tenantID,
	}

	if err = userSession.Write(sessionID, s.cfg.Webserver.Session.ExpiryTime); err != nil {
		log.Error().Err(err).Msg("failed to write session")
		return handler.Error(c, fiber.StatusInternalServerError, "INTERNAL", "internal server error")
	}

	cookieSettings := &fiber.Cookie{
		Name:     session.CookieName,
		Value:    sessionID,
		MaxAge:   int(s.cfg.Webserver.Session.ExpiryTime.Seconds()),
		Secure:   true,
		HTTPOnly: true,
		SameSite: "Lax", // TODO: make this configurable
	}

	if s.cfg.DevMode {
		cookieSettings.Secure = false
	}

	c.Cookie(cookieSettings)

	return c.JSON(fiber.Map{
		"user": fiber.Map{
			"id":           user.ID,
			"email":        user.Email,
			"display_name": user.DisplayName,
			"global_role":  user.GlobalRole,
		},
		"tenant_id": tenantID,
	})
}
