package models

import "time"

// Permission represents a permission key from the closed catalog.
// Rows are seeded from the compiled-in catalog at startup and act as the
// foreign-key targets for role and membership permission grants; the catalog
// itself, not these rows, is the source of truth for validity.
type Permission struct {
	// ID is the unique identifier for the permission.
	ID uint64 `gorm:"primaryKey"`
	// Key is the unique permission identifier in resource.action format (e.g., "customers.edit").
	Key string `gorm:"uniqueIndex;size:100;not null"`
	// Resource is the resource this permission applies to (e.g., "customers", "inventory").
	Resource string `gorm:"size:100;not null"`
	// Action is the action allowed on the resource (e.g., "view", "create", "edit", "delete").
	Action string `gorm:"size:50;not null"`
	// Description provides a human-readable explanation of what this permission grants.
	Description string `gorm:"size:255"`
	// CreatedAt is the timestamp when the permission was seeded (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the permission was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Permission model.
func (Permission) TableName() string {
	return "permissions"
}
