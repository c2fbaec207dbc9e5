package models

import "time"

// Role represents a tenant-scoped role in the role-based access control system.
// Roles are collections of permissions assigned to users through memberships.
// System roles (IsSystemRole) are seeded at tenant provisioning and protected:
// they can never be deleted and can only be edited by a global super-admin.
type Role struct {
	// ID is the unique identifier for the role.
	ID uint64 `gorm:"primaryKey"`
	// TenantID is the tenant this role belongs to.
	// Role names are unique within a tenant, never globally.
	TenantID uint64 `gorm:"not null;uniqueIndex:idx_tenant_role_name;index:idx_roles_tenant_id_id,priority:1"`
	// Name is the name of the role, unique within the tenant (e.g., "Owner", "Cashier").
	Name string `gorm:"size:100;not null;uniqueIndex:idx_tenant_role_name"`
	// Description provides a human-readable description of the role's purpose.
	Description string `gorm:"size:255"`
	// Level is a numeric level used only for coarse display ordering, not enforcement.
	Level int `gorm:"not null;default:0"`
	// IsSystemRole indicates a protected seeded role that cannot be deleted.
	IsSystemRole bool `gorm:"default:false"`
	// Tenant is the owning tenant (loaded via foreign key).
	Tenant Tenant `gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE"`
	// CreatedAt is the timestamp when the role was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the role was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Role model.
func (Role) TableName() string {
	return "roles"
}
