package auth

import "sort"

// PermissionSet is the result of permission resolution for one (user, tenant)
// pair: the role's grants, the membership's custom overrides, and their union.
// Union membership uses set semantics; a key granted by both sources counts
// once, so any-of checks cannot be confused by accidental repeats.
type PermissionSet struct {
	// RolePermissions are the keys granted by the assigned role.
	RolePermissions []string
	// CustomPermissions are the additive per-membership overrides.
	CustomPermissions []string

	all map[string]struct{}
}

// NewPermissionSet builds a PermissionSet from role and custom key lists.
func NewPermissionSet(rolePerms, customPerms []string) PermissionSet {
	all := make(map[string]struct{}, len(rolePerms)+len(customPerms))
	for _, k := range rolePerms {
		all[k] = struct{}{}
	}

	for _, k := range customPerms {
		all[k] = struct{}{}
	}

	return PermissionSet{
		RolePermissions:   dedupeSorted(rolePerms),
		CustomPermissions: dedupeSorted(customPerms),
		all:               all,
	}
}

// Has reports whether the effective set contains key.
func (s PermissionSet) Has(key string) bool {
	_, ok := s.all[key]
	return ok
}

// All returns the deduplicated union of role and custom permissions, sorted.
func (s PermissionSet) All() []string {
	out := make([]string, 0, len(s.all))
	for k := range s.all {
		out = append(out, k)
	}

	sort.Strings(out)

	return out
}

// Empty reports whether the effective set grants nothing.
func (s PermissionSet) Empty() bool {
	return len(s.all) == 0
}

func dedupeSorted(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))

	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}

		seen[k] = struct{}{}
		out = append(out, k)
	}

	sort.Strings(out)

	return out
}
