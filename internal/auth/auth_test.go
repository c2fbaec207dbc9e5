package auth

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/countersuite/countersuite/internal/db/models"
)

// setupTestDB creates an in-memory SQLite database with the full schema and
// the permission catalog seeded.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(
		&models.Tenant{},
		&models.User{},
		&models.Role{},
		&models.Permission{},
		&models.RolePermission{},
		&models.Membership{},
		&models.MembershipPermission{},
	)
	require.NoError(t, err, "failed to migrate test database")

	for key, desc := range Catalog() {
		perm := models.Permission{
			Key:         key,
			Resource:    Resource(key),
			Action:      Action(key),
			Description: desc,
		}
		require.NoError(t, db.Create(&perm).Error)
	}

	return db
}

func seedTenant(t *testing.T, db *gorm.DB, subdomain string) *models.Tenant {
	t.Helper()

	tenant := models.Tenant{Name: subdomain, Subdomain: subdomain, Status: models.TenantStatusActive}
	require.NoError(t, db.Create(&tenant).Error)

	return &tenant
}

func seedUser(t *testing.T, db *gorm.DB, email string, role models.GlobalRole) *models.User {
	t.Helper()

	user := models.User{Active: true, Email: email, DisplayName: email, GlobalRole: role}
	require.NoError(t, db.Create(&user).Error)

	return &user
}

// seedRole creates a role in the tenant granting the given catalog keys.
func seedRole(t *testing.T, db *gorm.DB, tenantID uint64, name string, system bool, keys ...string) *models.Role {
	t.Helper()

	role := models.Role{TenantID: tenantID, Name: name, Level: 10, IsSystemRole: system}
	require.NoError(t, db.Create(&role).Error)

	for _, key := range keys {
		var perm models.Permission
		require.NoError(t, db.Where("`key` = ?", key).First(&perm).Error)
		require.NoError(t, db.Create(&models.RolePermission{RoleID: role.ID, PermissionID: perm.ID}).Error)
	}

	return &role
}

// seedMembership creates a membership, optionally with custom permission keys.
func seedMembership(t *testing.T, db *gorm.DB, userID, tenantID, roleID uint64,
	status models.MembershipStatus, customKeys ...string,
) *models.Membership {
	t.Helper()

	m := models.Membership{UserID: userID, TenantID: tenantID, RoleID: roleID, Status: status}
	require.NoError(t, db.Create(&m).Error)

	for _, key := range customKeys {
		var perm models.Permission
		require.NoError(t, db.Where("`key` = ?", key).First(&perm).Error)
		require.NoError(t, db.Create(&models.MembershipPermission{
			MembershipID: m.ID, PermissionID: perm.ID,
		}).Error)
	}

	return &m
}
