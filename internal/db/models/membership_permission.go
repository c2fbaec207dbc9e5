package models

// MembershipPermission represents the additive custom-permission overrides on a
// membership. Effective permissions are the union of the assigned role's grants
// and these rows; overrides only ever add capability, never remove it.
// When a membership is deleted, its overrides are automatically removed (CASCADE).
type MembershipPermission struct {
	// MembershipID is the ID of the membership in this mapping.
	MembershipID uint64 `gorm:"primaryKey;column:membership_id"`
	// PermissionID is the ID of the permission in this mapping.
	PermissionID uint64 `gorm:"primaryKey;column:permission_id"`
	// Membership is the associated membership (loaded via foreign key).
	Membership Membership `gorm:"foreignKey:MembershipID;constraint:OnDelete:CASCADE"`
	// Permission is the associated permission (loaded via foreign key).
	Permission Permission `gorm:"foreignKey:PermissionID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the database table name for the MembershipPermission model.
func (MembershipPermission) TableName() string {
	return "membership_permissions"
}
