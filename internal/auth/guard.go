package auth

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/countersuite/countersuite/internal/db/models"
)

// RoleOperation is a mutation attempted on a role record.
type RoleOperation string

const (
	// RoleOperationEdit covers name, level and permission-set changes.
	RoleOperationEdit RoleOperation = "edit"
	// RoleOperationDelete covers role deletion.
	RoleOperationDelete RoleOperation = "delete"
)

// GuardResult is the outcome of a system-role guard check.
type GuardResult struct {
	// Allowed is false when the operation violates a system-role invariant.
	Allowed bool
	// Reason explains a denial in terms safe to return to the caller. This
	// guard is a deliberate guardrail, not a secrecy boundary, so the message
	// is specific.
	Reason string
}

// ValidateRoleOperation enforces the system-role invariants before a role
// mutation. The role lookup is tenant-scoped so a role ID from another tenant
// behaves exactly like a missing role.
//
// Deleting a system role is denied unconditionally, whoever asks. Editing a
// system role is denied unless the actor holds the global super-admin role.
// Non-system roles pass; the normal permission layer still applies to them,
// this guard is purely additive.
func ValidateRoleOperation(db *gorm.DB, roleID, tenantID uint64, op RoleOperation, actor *models.User) (GuardResult, error) {
	var role models.Role

	err := db.Where("id = ? AND tenant_id = ?", roleID, tenantID).First(&role).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return GuardResult{Allowed: false, Reason: "role not found"}, ErrRoleNotFound
	}

	if err != nil {
		return GuardResult{Allowed: false, Reason: "role lookup failed"},
			fmt.Errorf("failed to look up role: %w", err)
	}

	if !role.IsSystemRole {
		return GuardResult{Allowed: true}, nil
	}

	switch op {
	case RoleOperationDelete:
		return GuardResult{
			Allowed: false,
			Reason:  "system roles cannot be deleted",
		}, nil
	case RoleOperationEdit:
		if actor != nil && actor.IsSuperAdmin() {
			return GuardResult{Allowed: true}, nil
		}

		return GuardResult{
			Allowed: false,
			Reason:  "system roles can only be edited by a global super-admin",
		}, nil
	default:
		// Unknown operations on system roles fail closed.
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("unsupported role operation %q", op),
		}, nil
	}
}
