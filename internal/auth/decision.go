package auth

import (
	"github.com/countersuite/countersuite/internal/db/models"
)

// Decision reason codes. Reason is what the client may see; the rest of the
// Decision is diagnostic detail for the audit trail only.
const (
	// ReasonAuthRequired denies an unauthenticated request to a protected route.
	ReasonAuthRequired = "AUTH_REQUIRED"
	// ReasonAnonymousAllowed allows an unauthenticated request to an
	// explicitly anonymous route.
	ReasonAnonymousAllowed = "ANONYMOUS_ALLOWED"
	// ReasonBypassRole allows through a global bypass role.
	ReasonBypassRole = "BYPASS_ROLE"
	// ReasonPermissionMatch allows through resolved permissions.
	ReasonPermissionMatch = "PERMISSION_MATCH"
	// ReasonInsufficientPermissions denies for missing permissions.
	ReasonInsufficientPermissions = "INSUFFICIENT_PERMISSIONS"
	// ReasonServiceError denies because permission resolution itself failed.
	ReasonServiceError = "SERVICE_ERROR"
)

// Decision is the transient result of evaluating a request's required
// permissions. Matched is never sent to the client; only Required and the
// evaluation mode are safe to disclose.
type Decision struct {
	// Allowed is the final verdict.
	Allowed bool
	// Bypass marks an allow produced by a bypass role rather than resolved
	// permissions. Bypass allows carry separate audit weight.
	Bypass bool
	// Reason is the machine-readable reason code.
	Reason string
	// Required are the permission keys the route demanded.
	Required []string
	// Matched are the required keys the principal actually held.
	Matched []string
	// RequireAll records whether AND semantics were applied.
	RequireAll bool
	// Effective is the principal's full effective permission set, injected
	// into the handler context on allow. Server-side only.
	Effective []string
	// Err holds the underlying storage error when Reason is SERVICE_ERROR.
	Err error
}

// Outcome maps the decision onto the audit outcome taxonomy.
func (d Decision) Outcome() models.DecisionOutcome {
	switch {
	case d.Allowed && d.Bypass:
		return models.OutcomeBypass
	case d.Allowed:
		return models.OutcomeAllow
	default:
		return models.OutcomeDeny
	}
}

// Options configure a single decision.
type Options struct {
	// RequireAll switches from any-of (default) to all-of semantics.
	RequireAll bool
	// AllowAnonymous permits requests without a principal.
	AllowAnonymous bool
	// AllowNoTenant permits requests outside any tenant scope, for
	// instance-level routes served from the root domain.
	AllowNoTenant bool
	// Bypass overrides the engine's default bypass policy for this decision.
	Bypass *BypassPolicy
}

// Engine evaluates required permissions against resolved permission sets.
// It is stateless per request and fails closed: a resolution error is a deny,
// never a default allow.
type Engine struct {
	perms  *Service
	bypass *BypassPolicy
}

// NewEngine creates a decision engine using the given resolver and the
// default bypass policy applied when Options.Bypass is nil.
func NewEngine(perms *Service, bypass *BypassPolicy) *Engine {
	return &Engine{perms: perms, bypass: bypass}
}

// Decide evaluates the required permissions for a principal within a tenant.
func (e *Engine) Decide(user *models.User, tenantID uint64, required []string, opts Options) Decision {
	d := Decision{
		Required:   required,
		RequireAll: opts.RequireAll,
	}

	if user == nil {
		if opts.AllowAnonymous {
			d.Allowed = true
			d.Reason = ReasonAnonymousAllowed

			return e.finish(d)
		}

		d.Reason = ReasonAuthRequired

		return e.finish(d)
	}

	policy := opts.Bypass
	if policy == nil {
		policy = e.bypass
	}

	if policy.Allows(user.GlobalRole) {
		// Unconditional trust: the full catalog, no lookup.
		d.Allowed = true
		d.Bypass = true
		d.Reason = ReasonBypassRole
		d.Matched = required
		d.Effective = CatalogKeys()

		return e.finish(d)
	}

	perms, err := e.perms.EffectivePermissions(user.ID, tenantID)
	if err != nil {
		d.Reason = ReasonServiceError
		d.Err = err

		return e.finish(d)
	}

	d.Effective = perms.All()

	for _, key := range required {
		if perms.Has(key) {
			d.Matched = append(d.Matched, key)
		}
	}

	switch {
	case len(required) == 0:
		// Authenticated-only route, no specific permission demanded.
		d.Allowed = true
		d.Reason = ReasonPermissionMatch
	case opts.RequireAll:
		d.Allowed = len(d.Matched) == len(required)
	default:
		d.Allowed = len(d.Matched) > 0
	}

	if d.Reason == "" {
		if d.Allowed {
			d.Reason = ReasonPermissionMatch
		} else {
			d.Reason = ReasonInsufficientPermissions
		}
	}

	return e.finish(d)
}

func (e *Engine) finish(d Decision) Decision {
	decisionCounter.WithLabelValues(string(d.Outcome())).Inc()

	return d
}
