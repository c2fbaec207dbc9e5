// Package membership manages the user-to-tenant grants that carry all
// tenant-scoped authorization. A user has at most one membership row per
// tenant; re-adding a revoked user reactivates the existing row so the
// (user, tenant) pair stays unique.
package membership

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
	// ErrMembershipNotFound is returned when no membership exists for the user in the tenant.
	ErrMembershipNotFound = errors.New("membership not found")
	// ErrMembershipExists is returned when the user already has an active membership in the tenant.
	ErrMembershipExists = errors.New("user is already a member of this tenant")
	// ErrRoleNotInTenant is returned when the referenced role does not belong to the tenant.
	ErrRoleNotInTenant = errors.New("role does not belong to this tenant")
	// ErrUserNotFound is returned when the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")
)

const whereUserAndTenant = "user_id = ? AND tenant_id = ?"

// List retrieves all memberships of a tenant with their roles preloaded.
func List(db *gorm.DB, tenantID uint64) ([]models.Membership, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var memberships []models.Membership
	result := db.Preload("Role").Where("tenant_id = ?", tenantID).Find(&memberships)
	if result.Error != nil {
		return nil, result.Error
	}

	return memberships, nil
}

// Get retrieves the membership of a user in a tenant, any status.
func Get(db *gorm.DB, tenantID, userID uint64) (*models.Membership, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var m models.Membership
	result := db.Preload("Role").Where(whereUserAndTenant, userID, tenantID).First(&m)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrMembershipNotFound
		}
		return nil, result.Error
	}

	return &m, nil
}

// Add grants a user membership in a tenant with the given role.
// If a revoked or suspended membership row already exists it is reactivated
// with the new role and its custom permissions cleared; an active one is an
// error.
func Add(db *gorm.DB, tenantID, userID, roleID uint64) (*models.Membership, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var out models.Membership

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := checkUser(tx, userID); err != nil {
			return err
		}
		if err := checkRole(tx, tenantID, roleID); err != nil {
			return err
		}

		var existing models.Membership
		result := tx.Where(whereUserAndTenant, userID, tenantID).First(&existing)

		switch {
		case result.Error == nil:
			if existing.Status == models.MembershipStatusActive {
				return ErrMembershipExists
			}

			existing.RoleID = roleID
			existing.Status = models.MembershipStatusActive

			if err := tx.Save(&existing).Error; err != nil {
				return fmt.Errorf("failed to reactivate membership: %w", err)
			}
			if err := clearCustomPermissions(tx, existing.ID); err != nil {
				return err
			}

			out = existing

			return nil
		case errors.Is(result.Error, gorm.ErrRecordNotFound):
			out = models.Membership{
				UserID:   userID,
				TenantID: tenantID,
				RoleID:   roleID,
				Status:   models.MembershipStatusActive,
			}

			if err := tx.Create(&out).Error; err != nil {
				return fmt.Errorf("failed to create membership: %w", err)
			}

			return nil
		default:
			return result.Error
		}
	})
	if err != nil {
		return nil, err
	}

	return &out, nil
}

// ChangeRole assigns a different role to a user's membership in a tenant.
// The role must belong to the same tenant.
func ChangeRole(db *gorm.DB, tenantID, userID, roleID uint64) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := checkRole(tx, tenantID, roleID); err != nil {
			return err
		}

		var m models.Membership
		result := tx.Where(whereUserAndTenant, userID, tenantID).First(&m)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return ErrMembershipNotFound
			}
			return result.Error
		}

		m.RoleID = roleID

		return tx.Save(&m).Error
	})
}

// SetStatus updates the status of a user's membership in a tenant.
func SetStatus(db *gorm.DB, tenantID, userID uint64, status models.MembershipStatus) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Model(&models.Membership{}).
		Where(whereUserAndTenant, userID, tenantID).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMembershipNotFound
	}

	return nil
}

// Revoke marks a user's membership in a tenant as revoked. The row is kept
// so the grant history survives and a later re-add reactivates it.
func Revoke(db *gorm.DB, tenantID, userID uint64) error {
	return SetStatus(db, tenantID, userID, models.MembershipStatusRevoked)
}

// CustomPermissions retrieves the per-membership extra permission keys of a
// user in a tenant.
func CustomPermissions(db *gorm.DB, tenantID, userID uint64) ([]string, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	m, err := Get(db, tenantID, userID)
	if err != nil {
		return nil, err
	}

	var keys []string

	err = db.Table("permissions").
		Select("DISTINCT permissions.key").
		Joins("JOIN membership_permissions ON membership_permissions.permission_id = permissions.id").
		Where("membership_permissions.membership_id = ?", m.ID).
		Pluck("permissions.key", &keys).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get custom permissions: %w", err)
	}

	return keys, nil
}

// SetCustomPermissions replaces the per-membership extra permission set of a
// user in a tenant inside one transaction. Every key must belong to the
// permission catalog.
func SetCustomPermissions(db *gorm.DB, tenantID, userID uint64, permKeys []string) error {
	if db == nil {
		return ErrDBNil
	}

	for _, key := range permKeys {
		if !auth.ValidKey(key) {
			return fmt.Errorf("%w: %q", auth.ErrUnknownPermissionKey, key)
		}
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var m models.Membership
		result := tx.Where(whereUserAndTenant, userID, tenantID).First(&m)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return ErrMembershipNotFound
			}
			return result.Error
		}

		if err := clearCustomPermissions(tx, m.ID); err != nil {
			return err
		}

		for _, key := range permKeys {
			var perm models.Permission
			if err := tx.Where("`key` = ?", key).First(&perm).Error; err != nil {
				return fmt.Errorf("failed to look up permission %q: %w", key, err)
			}

			mp := models.MembershipPermission{MembershipID: m.ID, PermissionID: perm.ID}
			if err := tx.Where(&mp).FirstOrCreate(&mp).Error; err != nil {
				return fmt.Errorf("failed to grant permission %q: %w", key, err)
			}
		}

		return nil
	})
}

func clearCustomPermissions(tx *gorm.DB, membershipID uint64) error {
	err := tx.Where("membership_id = ?", membershipID).Delete(&models.MembershipPermission{}).Error
	if err != nil {
		return fmt.Errorf("failed to clear custom permissions: %w", err)
	}

	return nil
}

func checkUser(tx *gorm.DB, userID uint64) error {
	var user models.User
	result := tx.Where("id = ?", userID).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return result.Error
	}

	return nil
}

func checkRole(tx *gorm.DB, tenantID, roleID uint64) error {
	var r models.Role
	result := tx.Where("tenant_id = ? AND id = ?", tenantID, roleID).First(&r)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return ErrRoleNotInTenant
		}
		return result.Error
	}

	return nil
}
