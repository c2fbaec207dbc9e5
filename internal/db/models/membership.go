package models

import "time"

// MembershipStatus represents the lifecycle status of a membership.
// Permission resolution only considers active memberships.
type MembershipStatus string

const (
	// MembershipStatusActive indicates the membership grants access.
	MembershipStatusActive MembershipStatus = "active"
	// MembershipStatusSuspended indicates access is temporarily withheld.
	MembershipStatusSuspended MembershipStatus = "suspended"
	// MembershipStatusRevoked indicates the membership was deactivated on removal.
	// Revoked rows are kept, never hard-deleted, to preserve the audit trail.
	MembershipStatusRevoked MembershipStatus = "revoked"
)

// Membership binds a user to a tenant with an assigned role.
// It is the actual unit of authorization: a user with no active membership in
// a tenant has no permissions there, whatever their other tenants grant.
// At most one active membership exists per (user, tenant) pair.
//
// The role reference is constrained by the composite (tenant_id, role_id) key
// so a membership can never point at another tenant's role, a structural
// guarantee rather than an application-level check.
type Membership struct {
	// ID is the unique identifier for the membership.
	ID uint64 `gorm:"primaryKey"`
	// UserID is the user being granted access.
	UserID uint64 `gorm:"not null;uniqueIndex:idx_user_tenant"`
	// TenantID is the tenant access is granted to.
	TenantID uint64 `gorm:"not null;uniqueIndex:idx_user_tenant"`
	// RoleID is the tenant-scoped role assigned to this membership.
	RoleID uint64 `gorm:"not null"`
	// Status is the membership lifecycle status (active, suspended, revoked).
	Status MembershipStatus `gorm:"type:varchar(20);not null;default:'active';index"`
	// User is the associated user (loaded via foreign key).
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	// Role is the assigned role, constrained by (tenant_id, role_id) so the
	// role is guaranteed to belong to the same tenant as the membership.
	Role Role `gorm:"foreignKey:TenantID,RoleID;references:TenantID,ID"`
	// Tenant is the tenant this membership belongs to (loaded via foreign key).
	Tenant Tenant `gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE"`
	// CreatedAt is the timestamp when the user was added to the tenant (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the membership was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Membership model.
func (Membership) TableName() string {
	return "memberships"
}

// IsActive reports whether the membership currently grants access.
func (m *Membership) IsActive() bool {
	return m.Status == MembershipStatusActive
}
