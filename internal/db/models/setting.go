// Package models contains database model definitions.
package models

// Setting represents a configuration setting stored in the database.
// TenantID zero means the setting applies instance-wide; otherwise the
// setting belongs to one tenant and its name is unique within it.
type Setting struct {
	ID       uint64 `gorm:"primaryKey"`
	TenantID uint64 `gorm:"uniqueIndex:idx_tenant_setting_name"`
	Name     string `gorm:"uniqueIndex:idx_tenant_setting_name;size:191"`
	Value    []byte `gorm:"type:blob"`
}
