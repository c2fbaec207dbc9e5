package auth

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/countersuite/countersuite/internal/db/models"
)

// Service resolves effective permissions for (user, tenant) pairs.
// Resolution is a side-effect-free read; concurrent requests need no
// coordination. Any storage error propagates so callers can fail closed.
type Service struct {
	db *gorm.DB
}

// NewService creates a new permission resolution service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// EffectivePermissions computes the permission set for a user within a tenant.
// It considers only the single active membership for the pair; a user without
// one gets an empty set and a nil error, because absence of access is a valid
// resolution result, not a failure.
func (s *Service) EffectivePermissions(userID, tenantID uint64) (PermissionSet, error) {
	var membership models.Membership

	err := s.db.Where("user_id = ? AND tenant_id = ? AND status = ?",
		userID, tenantID, models.MembershipStatusActive).
		First(&membership).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NewPermissionSet(nil, nil), nil
	}

	if err != nil {
		return PermissionSet{}, fmt.Errorf("failed to look up membership: %w", err)
	}

	var rolePerms []string

	err = s.db.Table("permissions").
		Select("DISTINCT permissions.key").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Where("role_permissions.role_id = ?", membership.RoleID).
		Pluck("permissions.key", &rolePerms).Error
	if err != nil {
		return PermissionSet{}, fmt.Errorf("failed to get role permissions: %w", err)
	}

	var customPerms []string

	err = s.db.Table("permissions").
		Select("DISTINCT permissions.key").
		Joins("JOIN membership_permissions ON membership_permissions.permission_id = permissions.id").
		Where("membership_permissions.membership_id = ?", membership.ID).
		Pluck("permissions.key", &customPerms).Error
	if err != nil {
		return PermissionSet{}, fmt.Errorf("failed to get custom permissions: %w", err)
	}

	return NewPermissionSet(rolePerms, customPerms), nil
}

// HasPermission checks if a user has a specific permission within a tenant.
func (s *Service) HasPermission(userID, tenantID uint64, permission string) (bool, error) {
	perms, err := s.EffectivePermissions(userID, tenantID)
	if err != nil {
		return false, err
	}

	return perms.Has(permission), nil
}

// HasAnyPermission checks if a user has at least one of the given permissions
// within a tenant.
func (s *Service) HasAnyPermission(userID, tenantID uint64, permissions []string) (bool, error) {
	if len(permissions) == 0 {
		return false, nil
	}

	perms, err := s.EffectivePermissions(userID, tenantID)
	if err != nil {
		return false, err
	}

	for _, perm := range permissions {
		if perms.Has(perm) {
			return true, nil
		}
	}

	return false, nil
}

// HasAllPermissions checks if a user has all of the given permissions within a tenant.
func (s *Service) HasAllPermissions(userID, tenantID uint64, permissions []string) (bool, error) {
	if len(permissions) == 0 {
		return true, nil
	}

	perms, err := s.EffectivePermissions(userID, tenantID)
	if err != nil {
		return false, err
	}

	for _, perm := range permissions {
		if !perms.Has(perm) {
			return false, nil
		}
	}

	return true, nil
}

// ActiveMembership returns the active membership for a (user, tenant) pair,
// or nil without error when none exists.
func (s *Service) ActiveMembership(userID, tenantID uint64) (*models.Membership, error) {
	var membership models.Membership

	err := s.db.Preload("Role").
		Where("user_id = ? AND tenant_id = ? AND status = ?",
			userID, tenantID, models.MembershipStatusActive).
		First(&membership).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to look up membership: %w", err)
	}

	return &membership, nil
}
