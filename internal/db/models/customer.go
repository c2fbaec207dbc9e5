package models

import "time"

// Customer is a tenant-scoped CRM record.
// It is representative of every business entity in the system: the tenant_id
// column participates in all uniqueness constraints and every query against
// the table is tenant-filtered, so a known customer ID from another tenant
// resolves to nothing.
type Customer struct {
	// ID is the unique identifier for the customer.
	ID uint64 `gorm:"primaryKey"`
	// TenantID is the owning tenant.
	TenantID uint64 `gorm:"not null;uniqueIndex:idx_tenant_customer_email;index"`
	// Name is the customer's display name.
	Name string `gorm:"size:255;not null"`
	// Email is unique within the tenant, not globally.
	Email string `gorm:"size:255;not null;uniqueIndex:idx_tenant_customer_email"`
	// Phone is the customer's contact number.
	Phone string `gorm:"size:50"`
	// Notes holds free-form remarks.
	Notes string `gorm:"size:1024"`
	// Tenant is the owning tenant (loaded via foreign key).
	Tenant Tenant `gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE"`
	// CreatedAt is the timestamp when the customer was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the customer was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Customer model.
func (Customer) TableName() string {
	return "customers"
}
