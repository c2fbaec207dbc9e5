package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TenantStatus represents the lifecycle status of a tenant.
// Only active tenants may serve requests; every other status fails closed.
type TenantStatus string

const (
	// TenantStatusActive indicates the tenant is live and may serve requests.
	TenantStatusActive TenantStatus = "active"
	// TenantStatusInactive indicates the tenant has been provisioned but not yet activated.
	TenantStatusInactive TenantStatus = "inactive"
	// TenantStatusSuspended indicates the tenant has been administratively suspended.
	TenantStatusSuspended TenantStatus = "suspended"
	// TenantStatusArchived indicates the tenant has been retired and retained for audit only.
	TenantStatusArchived TenantStatus = "archived"
)

// Tenant represents an isolated customer organization.
// Every tenant-scoped entity carries a tenant_id foreign key; cross-tenant
// references are structurally prevented by composite keys on child entities.
// Tenants are never hard-deleted outside a cascading tenant deletion.
type Tenant struct {
	// ID is the unique internal identifier for the tenant.
	ID uint64 `gorm:"primaryKey"`
	// PublicID is the stable external identifier exposed in APIs and logs.
	PublicID string `gorm:"size:36;uniqueIndex;not null"`
	// Subdomain is the unique subdomain used for tenant resolution.
	Subdomain string `gorm:"size:63;uniqueIndex;not null"`
	// Name is the display name of the organization.
	Name string `gorm:"size:255;not null"`
	// Status is the lifecycle status of the tenant (active, inactive, suspended, archived).
	Status TenantStatus `gorm:"type:varchar(20);not null;default:'active'"`
	// Plan is the subscription plan identifier (informational, not enforced here).
	Plan string `gorm:"size:50;not null;default:'standard'"`
	// CreatedAt is the timestamp when the tenant was provisioned (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the tenant was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Tenant model.
func (Tenant) TableName() string {
	return "tenants"
}

// BeforeCreate assigns a public identifier if none was provided.
func (t *Tenant) BeforeCreate(_ *gorm.DB) error {
	if t.PublicID == "" {
		t.PublicID = uuid.NewString()
	}

	return nil
}

// IsActive reports whether the tenant may serve requests.
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}
