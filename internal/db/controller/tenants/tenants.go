// Package tenants manages tenant lifecycle: provisioning with the standard
// system roles, status changes and lookups. Provisioning is transactional so
// a tenant never exists without its system roles.
package tenants

import (
	"errors"
	"fmt"
	"regexp"

	"gorm.io/gorm"

	"github.com/countersuite/countersuite/internal/auth"
	"github.com/countersuite/countersuite/internal/db/models"
)

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrTenantNotFound is returned when a tenant is not found.
	ErrTenantNotFound = errors.New("tenant not found")
	// ErrSubdomainInvalid is returned when the subdomain is not a valid DNS label.
	ErrSubdomainInvalid = errors.New("subdomain must be a lowercase DNS label")
	// ErrSubdomainExists is returned when the subdomain is already taken.
	ErrSubdomainExists = errors.New("subdomain already exists")
	// ErrTenantNameEmpty is returned when attempting to provision a tenant without a name.
	ErrTenantNameEmpty = errors.New("tenant name cannot be empty")
)

var subdomainRe = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// systemRole describes one of the roles every tenant is provisioned with.
type systemRole struct {
	Name        string
	Description string
	Level       int
	Permissions []string
}

// systemRoles are created for every new tenant. Owner carries the full
// catalog so the first member can administer the tenant immediately.
var systemRoles = []systemRole{
	{
		Name:        "Owner",
		Description: "Full access to every feature and tenant administration",
		Level:       100,
		Permissions: auth.CatalogKeys(),
	},
	{
		Name:        "Manager",
		Description: "Day-to-day operations without tenant administration",
		Level:       50,
		Permissions: []string{
			auth.PermDashboardView,
			auth.PermCustomersView, auth.PermCustomersCreate, auth.PermCustomersEdit, auth.PermCustomersDelete,
			auth.PermInventoryView, auth.PermInventoryCreate, auth.PermInventoryEdit, auth.PermInventoryDelete, auth.PermInventoryAdjust,
			auth.PermSalesView, auth.PermSalesCreate, auth.PermSalesRefund,
			auth.PermEmployeesView, auth.PermEmployeesCreate, auth.PermEmployeesEdit,
			auth.PermReportsView,
		},
	},
	{
		Name:        "Cashier",
		Description: "Point-of-sale operations",
		Level:       20,
		Permissions: []string{
			auth.PermDashboardView,
			auth.PermCustomersView, auth.PermCustomersCreate,
			auth.PermInventoryView,
			auth.PermSalesView, auth.PermSalesCreate,
		},
	},
	{
		Name:        "Viewer",
		Description: "Read-only access",
		Level:       10,
		Permissions: []string{
			auth.PermDashboardView,
			auth.PermCustomersView,
			auth.PermInventoryView,
			auth.PermSalesView,
			auth.PermReportsView,
		},
	},
}

// SystemRoleNames returns the names of the roles every tenant starts with.
func SystemRoleNames() []string {
	names := make([]string, 0, len(systemRoles))
	for _, sr := range systemRoles {
		names = append(names, sr.Name)
	}

	return names
}

// List retrieves all tenants ordered by name.
func List(db *gorm.DB) ([]models.Tenant, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var out []models.Tenant
	result := db.Order("name ASC").Find(&out)
	if result.Error != nil {
		return nil, result.Error
	}

	return out, nil
}

// ByID retrieves a tenant by its internal ID.
func ByID(db *gorm.DB, tenantID uint64) (*models.Tenant, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var t models.Tenant
	result := db.Where("id = ?", tenantID).First(&t)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, result.Error
	}

	return &t, nil
}

// BySubdomain retrieves a tenant by its subdomain.
func BySubdomain(db *gorm.DB, subdomain string) (*models.Tenant, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var t models.Tenant
	result := db.Where("subdomain = ?", subdomain).First(&t)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, result.Error
	}

	return &t, nil
}

// Provision creates a tenant with its system roles and, when ownerID is not
// zero, an active Owner membership for that user. Everything runs in one
// transaction.
func Provision(db *gorm.DB, name, subdomain, plan string, ownerID uint64) (*models.Tenant, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if name == "" {
		return nil, ErrTenantNameEmpty
	}
	if !subdomainRe.MatchString(subdomain) {
		return nil, ErrSubdomainInvalid
	}

	var created models.Tenant

	err := db.Transaction(func(tx *gorm.DB) error {
		var clash models.Tenant
		result := tx.Where("subdomain = ?", subdomain).First(&clash)
		if result.Error == nil {
			return ErrSubdomainExists
		}
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return result.Error
		}

		created = models.Tenant{
			Name:      name,
			Subdomain: subdomain,
			Status:    models.TenantStatusActive,
			Plan:      plan,
		}

		if err := tx.Create(&created).Error; err != nil {
			return fmt.Errorf("failed to create tenant: %w", err)
		}

		ownerRoleID, err := seedSystemRoles(tx, created.ID)
		if err != nil {
			return err
		}

		if ownerID != 0 {
			m := models.Membership{
				UserID:   ownerID,
				TenantID: created.ID,
				RoleID:   ownerRoleID,
				Status:   models.MembershipStatusActive,
			}
			if err := tx.Create(&m).Error; err != nil {
				return fmt.Errorf("failed to create owner membership: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &created, nil
}

// SetStatus updates a tenant's status. Callers owning a tenant resolver
// cache must invalidate the tenant afterwards.
func SetStatus(db *gorm.DB, tenantID uint64, status models.TenantStatus) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Model(&models.Tenant{}).Where("id = ?", tenantID).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTenantNotFound
	}

	return nil
}

// seedSystemRoles creates the standard roles for a tenant and returns the
// Owner role ID. Permission catalog rows must already exist.
func seedSystemRoles(tx *gorm.DB, tenantID uint64) (uint64, error) {
	var ownerID uint64

	for _, sr := range systemRoles {
		r := models.Role{
			TenantID:     tenantID,
			Name:         sr.Name,
			Description:  sr.Description,
			Level:        sr.Level,
			IsSystemRole: true,
		}

		if err := tx.Create(&r).Error; err != nil {
			return 0, fmt.Errorf("failed to create system role %q: %w", sr.Name, err)
		}

		for _, key := range sr.Permissions {
			var perm models.Permission
			if err := tx.Where("`key` = ?", key).First(&perm).Error; err != nil {
				return 0, fmt.Errorf("failed to look up permission %q: %w", key, err)
			}

			rp := models.RolePermission{RoleID: r.ID, PermissionID: perm.ID}
			if err := tx.Create(&rp).Error; err != nil {
				return 0, fmt.Errorf("failed to grant %q to role %q: %w", key, sr.Name, err)
			}
		}

		if sr.Name == "Owner" {
			ownerID = r.ID
		}
	}

	return ownerID, nil
}
