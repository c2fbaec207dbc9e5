package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/countersuite/countersuite/internal/audit"
	"github.com/countersuite/countersuite/internal/db/models"
	"github.com/countersuite/countersuite/internal/web/session"
)

// Locals keys under which the middleware injects resolved context for handlers.
const (
	// LocalUser holds the authenticated *models.User.
	LocalUser = "user"
	// LocalTenant holds the resolved *models.Tenant (set by the tenant middleware).
	LocalTenant = "tenant"
	// LocalTenantID holds the resolved tenant ID (set by the tenant middleware).
	LocalTenantID = "tenantID"
	// LocalPermissions holds the principal's effective permission keys.
	LocalPermissions = "permissions"
)

// Middleware builds Fiber middleware enforcing permission requirements.
// Every decision it makes, allow, deny and bypass alike, is written to the
// audit trail; no code path skips the recorder.
type Middleware struct {
	engine *Engine
	audit  *audit.Recorder
}

// NewMiddleware creates the permission middleware factory.
func NewMiddleware(engine *Engine, recorder *audit.Recorder) *Middleware {
	return &Middleware{engine: engine, audit: recorder}
}

// ResolvePrincipal resolves the authenticated principal from the request's
// session cookie. It returns nil when no valid credential is present; absent,
// malformed and expired credentials are deliberately indistinguishable here so
// responses cannot be used as an oracle.
func ResolvePrincipal(c *fiber.Ctx) (*models.User, *session.Data) {
	sessionID := c.Cookies(session.CookieName)
	if sessionID == "" {
		return nil, nil
	}

	sessData := new(session.Data)
	if err := sessData.Read(sessionID); err != nil {
		return nil, nil
	}

	if !sessData.Valid() {
		return nil, nil
	}

	return &sessData.User, sessData
}

// TenantIDFromContext returns the tenant ID injected by the tenant middleware,
// zero when tenant resolution did not run or failed.
func TenantIDFromContext(c *fiber.Ctx) uint64 {
	if id, ok := c.Locals(LocalTenantID).(uint64); ok {
		return id
	}

	return 0
}

// UserFromContext returns the principal injected by the permission middleware.
func UserFromContext(c *fiber.Ctx) *models.User {
	if u, ok := c.Locals(LocalUser).(*models.User); ok {
		return u
	}

	return nil
}

// PermissionsFromContext returns the effective permission keys injected by the
// permission middleware.
func PermissionsFromContext(c *fiber.Ctx) []string {
	if p, ok := c.Locals(LocalPermissions).([]string); ok {
		return p
	}

	return nil
}

// RequirePermission creates Fiber middleware that requires a specific permission.
func (m *Middleware) RequirePermission(permission string) fiber.Handler {
	return m.require([]string{permission}, Options{})
}

// RequireAnyPermission creates Fiber middleware that requires at least one of
// the given permissions.
func (m *Middleware) RequireAnyPermission(permissions ...string) fiber.Handler {
	return m.require(permissions, Options{})
}

// RequireAllPermissions creates Fiber middleware that requires all the given permissions.
func (m *Middleware) RequireAllPermissions(permissions ...string) fiber.Handler {
	return m.require(permissions, Options{RequireAll: true})
}

// RequireAuthenticated creates Fiber middleware that requires a valid principal
// but no specific permission.
func (m *Middleware) RequireAuthenticated() fiber.Handler {
	return m.require(nil, Options{})
}

// Require creates Fiber middleware with explicit options, for routes that need
// a non-default bypass policy or anonymous access.
func (m *Middleware) Require(permissions []string, opts Options) fiber.Handler {
	return m.require(permissions, opts)
}

func (m *Middleware) require(required []string, opts Options) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID := TenantIDFromContext(c)
		if tenantID == 0 && !opts.AllowAnonymous && !opts.AllowNoTenant {
			// Tenant middleware did not resolve a tenant; fail closed.
			return denyTenant(c)
		}

		user, _ := ResolvePrincipal(c)

		decision := m.engine.Decide(user, tenantID, required, opts)

		m.recordDecision(c, user, tenantID, decision)

		if !decision.Allowed {
			return m.deny(c, decision)
		}

		if user != nil {
			c.Locals(LocalUser, user)
			c.Locals(LocalPermissions, decision.Effective)
		}

		return c.Next()
	}
}

func (m *Middleware) recordDecision(c *fiber.Ctx, user *models.User, tenantID uint64, d Decision) {
	ev := audit.Event{
		TenantID:   tenantID,
		Route:      c.Method() + " " + c.Path(),
		Required:   d.Required,
		RequireAll: d.RequireAll,
		Outcome:    d.Outcome(),
		Reason:     d.Reason,
	}

	if user != nil {
		ev.UserID = user.ID
		ev.GlobalRole = string(user.GlobalRole)
	}

	m.audit.Record(ev)
}

func (m *Middleware) deny(c *fiber.Ctx, d Decision) error {
	switch d.Reason {
	case ReasonAuthRequired:
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    ReasonAuthRequired,
				"message": "authentication required",
			},
		})
	case ReasonServiceError:
		log.Error().Err(d.Err).
			Strs("required", d.Required).
			Msg("permission resolution failed")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    ReasonServiceError,
				"message": "internal server error",
			},
		})
	default:
		// The required keys are safe to disclose, the catalog is not secret.
		// The principal's own permission set is not.
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": fiber.Map{
				"code":     ReasonInsufficientPermissions,
				"message":  "you don't have permission to access this resource",
				"required": d.Required,
				"mode":     modeString(d.RequireAll),
			},
		})
	}
}

// denyTenant returns the generic tenant denial. It deliberately does not
// reveal whether the tenant is unknown or suspended.
func denyTenant(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "TENANT_ACCESS_DENIED",
			"message": "tenant access denied",
		},
	})
}

func modeString(requireAll bool) string {
	if requireAll {
		return "all"
	}

	return "any"
}
