// Package auth provides authentication and tenant-scoped authorization.
//
// Authorization is membership-based: a user is bound to a tenant through a
// Membership record carrying a tenant-scoped role plus optional additive
// custom permissions. The effective permission set for a request is the
// deduplicated union of the role's grants and the membership's overrides,
// resolved by Service and evaluated by Engine against the route's required
// permission keys with any-of or all-of semantics.
//
// Permission keys come from a closed catalog compiled into this package.
// An unknown key is rejected when a role or membership is mutated, never
// silently evaluated to false at check time.
//
// A named BypassPolicy short-circuits resolution for global bypass roles
// (by default only the super-admin). Bypass allows are tagged distinctly in
// the audit trail.
//
// Everything fails closed: no principal, no membership, an inactive tenant or
// a storage error all deny.
//
// # Authentication Providers
//
// LocalProvider handles email/password authentication against the local
// database with Argon2id password hashing. OIDCProvider implements the
// OAuth2/OIDC code flow against external identity providers; SSO establishes
// identity only, tenant access still requires a membership.
//
// # Middleware
//
// Middleware wraps route handlers with the full decision chain:
//
//	mw := auth.NewMiddleware(auth.NewEngine(auth.NewService(db), auth.AdminBypassPolicy), recorder)
//
//	app.Get("/customers",
//	    mw.RequirePermission(auth.PermCustomersView),
//	    handler,
//	)
//
// On allow the wrapped handler receives the principal, tenant ID and
// effective permissions through the request locals; on deny the middleware
// short-circuits with a structured 401/403 and the handler never runs.
// Every decision is written to the audit trail.
//
// # System-Role Guard
//
// ValidateRoleOperation enforces the protected-role invariants independently
// of the permission layer: system roles can never be deleted and only a
// global super-admin may edit them.
package auth
