package auth

import "github.com/countersuite/countersuite/internal/db/models"

// BypassPolicy names the set of global roles that short-circuit permission
// resolution. Bypass semantics live in one shared policy object rather than
// ad-hoc role lists at each call site, so they stay centrally auditable.
type BypassPolicy struct {
	name  string
	roles map[models.GlobalRole]struct{}
}

// NewBypassPolicy creates a named bypass policy for the given global roles.
func NewBypassPolicy(name string, roles ...models.GlobalRole) *BypassPolicy {
	set := make(map[models.GlobalRole]struct{}, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}

	return &BypassPolicy{name: name, roles: set}
}

// Name returns the policy's name as it appears in audit records.
func (p *BypassPolicy) Name() string {
	return p.name
}

// Allows reports whether the given global role bypasses permission resolution.
func (p *BypassPolicy) Allows(role models.GlobalRole) bool {
	if p == nil {
		return false
	}

	_, ok := p.roles[role]

	return ok
}

// AdminBypassPolicy is the default policy: only the global super-admin role
// bypasses permission resolution.
var AdminBypassPolicy = NewBypassPolicy("admin-bypass", models.GlobalRoleSuperAdmin)
