// Package role provides CRUD operations for tenant-scoped roles.
// All lookups are tenant-filtered; a role ID from another tenant behaves like
// a missing role. Permission-set changes are transactional so a partially
// updated grant list is never observable.
package role

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/countersuite/countersuite/internal/auth"
	"github.com/countersuite/countersuite/internal/db/models"
)

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrRoleNotFound is returned when a role is not found within the tenant.
	ErrRoleNotFound = errors.New("role not found")
	// ErrRoleNameEmpty is returned when attempting to create/update a role with an empty name.
	ErrRoleNameEmpty = errors.New("role name cannot be empty")
	// ErrRoleNameExists is returned when the role name is already taken within the tenant.
	ErrRoleNameExists = errors.New("role name already exists in tenant")
	// ErrSystemRole is returned when attempting to delete a system role.
	ErrSystemRole = errors.New("system roles cannot be deleted")
)

const whereTenantAndID = "tenant_id = ? AND id = ?"

// List retrieves all roles of a tenant ordered by level, highest first.
func List(db *gorm.DB, tenantID uint64) ([]models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var roles []models.Role
	result := db.Where("tenant_id = ?", tenantID).Order("level DESC, name ASC").Find(&roles)
	if result.Error != nil {
		return nil, result.Error
	}

	return roles, nil
}

// Get retrieves a role by ID within a tenant.
func Get(db *gorm.DB, tenantID, roleID uint64) (*models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var role models.Role
	result := db.Where(whereTenantAndID, tenantID, roleID).First(&role)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, result.Error
	}

	return &role, nil
}

// GetByName retrieves a role by name within a tenant.
func GetByName(db *gorm.DB, tenantID uint64, name string) (*models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if name == "" {
		return nil, ErrRoleNameEmpty
	}

	var role models.Role
	result := db.Where("tenant_id = ? AND name = ?", tenantID, name).First(&role)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, result.Error
	}

	return &role, nil
}

// Permissions retrieves the permission keys granted by a role.
func Permissions(db *gorm.DB, tenantID, roleID uint64) ([]string, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if _, err := Get(db, tenantID, roleID); err != nil {
		return nil, err
	}

	var keys []string

	err := db.Table("permissions").
		Select("DISTINCT permissions.key").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Where("role_permissions.role_id = ?", roleID).
		Pluck("permissions.key", &keys).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get role permissions: %w", err)
	}

	return keys, nil
}

// Create creates a role with the given permission keys inside one transaction.
// Every key must belong to the permission catalog.
func Create(db *gorm.DB, tenantID uint64, name, description string, level int, permKeys []string, isSystem bool) (*models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if name == "" {
		return nil, ErrRoleNameEmpty
	}

	if err := validateKeys(permKeys); err != nil {
		return nil, err
	}

	var created models.Role

	err := db.Transaction(func(tx *gorm.DB) error {
		var existing models.Role
		result := tx.Where("tenant_id = ? AND name = ?", tenantID, name).First(&existing)
		if result.Error == nil {
			return ErrRoleNameExists
		}
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return result.Error
		}

		created = models.Role{
			TenantID:     tenantID,
			Name:         name,
			Description:  description,
			Level:        level,
			IsSystemRole: isSystem,
		}

		if err := tx.Create(&created).Error; err != nil {
			return fmt.Errorf("failed to create role: %w", err)
		}

		return grantPermissions(tx, created.ID, permKeys)
	})
	if err != nil {
		return nil, err
	}

	return &created, nil
}

// Update updates a role's attributes and replaces its permission set inside
// one transaction. Callers are responsible for running the system-role guard
// first; this function only enforces tenant scoping and catalog validity.
func Update(db *gorm.DB, tenantID, roleID uint64, name, description string, level int, permKeys []string) (*models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if name == "" {
		return nil, ErrRoleNameEmpty
	}

	if err := validateKeys(permKeys); err != nil {
		return nil, err
	}

	var updated models.Role

	err := db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where(whereTenantAndID, tenantID, roleID).First(&updated)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return ErrRoleNotFound
			}
			return result.Error
		}

		var clash models.Role
		result = tx.Where("tenant_id = ? AND name = ? AND id <> ?", tenantID, name, roleID).First(&clash)
		if result.Error == nil {
			return ErrRoleNameExists
		}
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return result.Error
		}

		updated.Name = name
		updated.Description = description
		updated.Level = level

		if err := tx.Save(&updated).Error; err != nil {
			return fmt.Errorf("failed to update role: %w", err)
		}

		if err := tx.Where("role_id = ?", roleID).Delete(&models.RolePermission{}).Error; err != nil {
			return fmt.Errorf("failed to clear role permissions: %w", err)
		}

		return grantPermissions(tx, roleID, permKeys)
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

// Delete deletes a non-system role within a tenant.
// System roles are refused here as well, independent of the guard layer.
func Delete(db *gorm.DB, tenantID, roleID uint64) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var role models.Role
		result := tx.Where(whereTenantAndID, tenantID, roleID).First(&role)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return ErrRoleNotFound
			}
			return result.Error
		}

		if role.IsSystemRole {
			return ErrSystemRole
		}

		if err := tx.Where("role_id = ?", roleID).Delete(&models.RolePermission{}).Error; err != nil {
			return fmt.Errorf("failed to clear role permissions: %w", err)
		}

		return tx.Delete(&role).Error
	})
}

// grantPermissions creates role_permissions rows for the given catalog keys.
func grantPermissions(tx *gorm.DB, roleID uint64, permKeys []string) error {
	for _, key := range permKeys {
		var perm models.Permission

		if err := tx.Where("`key` = ?", key).First(&perm).Error; err != nil {
			return fmt.Errorf("failed to look up permission %q: %w", key, err)
		}

		rp := models.RolePermission{RoleID: roleID, PermissionID: perm.ID}
		if err := tx.Where(&rp).FirstOrCreate(&rp).Error; err != nil {
			return fmt.Errorf("failed to grant permission %q: %w", key, err)
		}
	}

	return nil
}

func validateKeys(permKeys []string) error {
	for _, key := range permKeys {
		if !auth.ValidKey(key) {
			return fmt.Errorf("%w: %q", auth.ErrUnknownPermissionKey, key)
		}
	}

	return nil
}
