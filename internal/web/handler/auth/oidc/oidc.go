package oidc

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/countersuite/countersuite/internal/auth"
	"github.com/countersuite/countersuite/internal/config"
	"github.com/countersuite/countersuite/internal/web/handler"
	"github.com/countersuite/countersuite/internal/web/session"
)

const (
	// LoginPath is the path to initiate OIDC login.
	LoginPath = handler.RootPath + "auth/oidc/login"

	// CallbackPath is the path for OIDC callback.
	CallbackPath = handler.RootPath + "auth/oidc/callback"

	// stateTTL bounds how long an issued state token stays valid.
	stateTTL = 5 * time.Minute
)

// Service is the OIDC handler service.
type Service struct {
	handler.Service
	cfg          *config.Config
	db           *gorm.DB
	oidcProvider *auth.OIDCProvider
	perms        *auth.Service

	mu         sync.Mutex
	stateStore map[string]time.Time
}

// Handler is the OIDC handler.
var Handler = Service{
	stateStore: make(map[string]time.Time),
}

// Init initializes the OIDC handler. When OIDC is disabled or the provider
// cannot be reached the routes are simply not registered.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db
	s.perms = auth.NewService(db)

	if !cfg.OIDC.Enabled {
		return nil
	}

	oidcConfig := auth.OIDCConfig{
		Enabled:      cfg.OIDC.Enabled,
		IssuerURL:    cfg.OIDC.IssuerURL,
		ClientID:     cfg.OIDC.ClientID,
		ClientSecret: cfg.OIDC.ClientSecret,
		RedirectURL:  cfg.OIDC.RedirectURL,
		Scopes:       cfg.OIDC.Scopes,
	}

	oidcProvider, err := auth.NewOIDCProvider(context.Background(), &oidcConfig, db)
	if err != nil {
		if errors.Is(err, auth.ErrOIDCDisabled) {
			log.Info().Msg("OIDC authentication is disabled by configuration")
		} else {
			log.Warn().Err(err).Msg("failed to initialize OIDC provider, OIDC login disabled")
		}

		return nil
	}

	s.oidcProvider = oidcProvider

	log.Info().Msg("OIDC authentication provider initialized")

	app.Get(LoginPath, s.Login)
	app.Get(CallbackPath, s.Callback)

	go s.cleanupStates()

	return nil
}

// Login initiates the OIDC login flow.
func (s *Service) Login(c *fiber.Ctx) error {
	if s.oidcProvider == nil {
		return handler.Error(c, fiber.StatusServiceUnavailable, "OIDC_UNAVAILABLE", "OIDC authentication is not available")
	}

	state, err := auth.GenerateStateToken()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate state token")
		return handler.Error(c, fiber.StatusInternalServerError, "INTERNAL", "internal server error")
	}

	s.mu.Lock()
	s.stateStore[state] = time.Now().Add(stateTTL)
	s.mu.Unlock()

	return c.Redirect(s.oidcProvider.AuthURL(state))
}

// Callback handles the OIDC callback. SSO only establishes identity; the
// session pins whatever tenant the callback was served under, and without a
// membership there the user still holds zero permissions.
func (s *Service) Callback(c *fiber.Ctx) error {
	if s.oidcProvider == nil {
		return handler.Error(c, fiber.StatusServiceUnavailable, "OIDC_UNAVAILABLE", "OIDC authentication is not available")
	}

	code := c.Query("code")
	state := c.Query("state")

	if code == "" || state == "" {
		return handler.Error(c, fiber.StatusBadRequest, "INVALID_CALLBACK", "invalid callback parameters")
	}

	if !s.consumeState(state) {
		log.Warn().Msg("invalid or expired OIDC state token")
		return handler.Error(c, fiber.StatusBadRequest, "INVALID_STATE", "invalid state token")
	}

	user, err := s.oidcProvider.HandleCallback(c.Context(), code)
	if err != nil {
		log.Error().Err(err).Msg("OIDC authentication failed")
		return handler.Error(c, fiber.StatusUnauthorized, "AUTH_FAILED", "authentication failed")
	}

	tenantID := auth.TenantIDFromContext(c)

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
		SameSite: "Lax",
	}

	if s.cfg.DevMode {
		cookieSettings.Secure = false
	}

	c.Cookie(cookieSettings)

	log.Info().Str("email", user.Email).Msg("user logged in via OIDC")

	return c.Redirect("/me")
}

// consumeState validates a state token and removes it, single use.
func (s *Service) consumeState(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiration, exists := s.stateStore[state]
	if !exists {
		return false
	}

	delete(s.stateStore, state)

	return time.Now().Before(expiration)
}

// cleanupStates periodically removes expired state tokens.
func (s *Service) cleanupStates() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()

		s.mu.Lock()
		for state, expiration := range s.stateStore {
			if now.After(expiration) {
				delete(s.stateStore, state)
			}
		}
		s.mu.Unlock()
	}
}
