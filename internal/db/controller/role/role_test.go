package role

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/countersuite/countersuite/internal/auth"
	"github.com/countersuite/countersuite/internal/db/models"
)

// setupTestDB creates an in-memory SQLite database with the permission
// catalog seeded.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(
		&models.Tenant{},
		&models.Role{},
		&models.Permission{},
		&models.RolePermission{},
	)
	require.NoError(t, err, "failed to migrate test database")

	for key, desc := range auth.Catalog() {
		perm := models.Permission{
			Key:         key,
			Resource:    auth.Resource(key),
			Action:      auth.Action(key),
			Description: desc,
		}
		require.NoError(t, db.Create(&perm).Error)
	}

	return db
}

func seedTenant(t *testing.T, db *gorm.DB, subdomain string) *models.Tenant {
	t.Helper()

	tenant := models.Tenant{
		Name:      subdomain,
		Subdomain: subdomain,
		Status:    models.TenantStatusActive,
	}
	require.NoError(t, db.Create(&tenant).Error)

	return &tenant
}

func TestCreate(t *testing.T) {
	testCases := []struct {
		name          string
		roleName      string
		permKeys      []string
		expectedError error
	}{
		{
			name:          "empty name",
			roleName:      "",
			expectedError: ErrRoleNameEmpty,
		},
		{
			name:          "unknown permission key",
			roleName:      "Stocktaker",
			permKeys:      []string{"inventory.teleport"},
			expectedError: auth.ErrUnknownPermissionKey,
		},
		{
			name:     "successful create",
			roleName: "Stocktaker",
			permKeys: []string{auth.PermInventoryView, auth.PermInventoryAdjust},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			db := setupTestDB(t)
			tenant := seedTenant(t, db, "acme")

			created, err := Create(db, tenant.ID, tc.roleName, "", 30, tc.permKeys, false)

			if tc.expectedError != nil {
				require.Error(t, err)
				require.ErrorIs(t, err, tc.expectedError)
				assert.Nil(t, created)

				return
			}

			require.NoError(t, err)
			require.NotNil(t, created)
			assert.NotZero(t, created.ID)
			assert.Equal(t, tenant.ID, created.TenantID)
			assert.False(t, created.IsSystemRole)

			keys, err := Permissions(db, tenant.ID, created.ID)
			require.NoError(t, err)
			assert.ElementsMatch(t, tc.permKeys, keys)
		})
	}
}

func TestCreateDuplicateName(t *testing.T) {
	db := setupTestDB(t)
	tenant := seedTenant(t, db, "acme")
	other := seedTenant(t, db, "globex")

	_, err := Create(db, tenant.ID, "Stocktaker", "", 30, nil, false)
	require.NoError(t, err)

	// Same name in the same tenant clashes.
	_, err = Create(db, tenant.ID, "Stocktaker", "", 30, nil, false)
	require.ErrorIs(t, err, ErrRoleNameExists)

	// Same name in another tenant is fine.
	_, err = Create(db, other.ID, "Stocktaker", "", 30, nil, false)
	require.NoError(t, err)
}

func TestGetTenantScoping(t *testing.T) {
	db := setupTestDB(t)
	tenant := seedTenant(t, db, "acme")
	other := seedTenant(t, db, "globex")

	created, err := Create(db, tenant.ID, "Stocktaker", "", 30, nil, false)
	require.NoError(t, err)

	got, err := Get(db, tenant.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	// A valid role ID from another tenant behaves like a missing role.
	_, err = Get(db, other.ID, created.ID)
	require.ErrorIs(t, err, ErrRoleNotFound)

	_, err = Permissions(db, other.ID, created.ID)
	require.ErrorIs(t, err, ErrRoleNotFound)
}

func TestUpdateReplacesPermissionSet(t *testing.T) {
	db := setupTestDB(t)
	tenant := seedTenant(t, db, "acme")

	created, err := Create(db, tenant.ID, "Stocktaker", "", 30,
		[]string{auth.PermInventoryView, auth.PermInventoryAdjust}, false)
	require.NoError(t, err)

	updated, err := Update(db, tenant.ID, created.ID, "Stock Lead", "runs stocktakes", 35,
		[]string{auth.PermInventoryView, auth.PermReportsView})
	require.NoError(t, err)
	assert.Equal(t, "Stock Lead", updated.Name)
	assert.Equal(t, 35, updated.Level)

	keys, err := Permissions(db, tenant.ID, created.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{auth.PermInventoryView, auth.PermReportsView}, keys)
}

func TestUpdateRejectsUnknownKeyWithoutPartialWrite(t *testing.T) {
	db := setupTestDB(t)
	tenant := seedTenant(t, db, "acme")

	created, err := Create(db, tenant.ID, "Stocktaker", "", 30,
		[]string{auth.PermInventoryView}, false)
	require.NoError(t, err)

	_, err = Update(db, tenant.ID, created.ID, "Stocktaker", "", 30,
		[]string{auth.PermReportsView, "inventory.teleport"})
	require.ErrorIs(t, err, auth.ErrUnknownPermissionKey)

	// The old grant set must survive the failed update untouched.
	keys, err := Permissions(db, tenant.ID, created.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{auth.PermInventoryView}, keys)
}

func TestUpdateNotFound(t *testing.T) {
	db := setupTestDB(t)
	tenant := seedTenant(t, db, "acme")

	_, err := Update(db, tenant.ID, 999, "Ghost", "", 1, nil)
	require.ErrorIs(t, err, ErrRoleNotFound)
}

func TestDelete(t *testing.T) {
	db := setupTestDB(t)
	tenant := seedTenant(t, db, "acme")

	custom, err := Create(db, tenant.ID, "Stocktaker", "", 30,
		[]string{auth.PermInventoryView}, false)
	require.NoError(t, err)

	system, err := Create(db, tenant.ID, "Owner", "", 100, nil, true)
	require.NoError(t, err)

	require.ErrorIs(t, Delete(db, tenant.ID, system.ID), ErrSystemRole)
	require.ErrorIs(t, Delete(db, tenant.ID, 999), ErrRoleNotFound)

	require.NoError(t, Delete(db, tenant.ID, custom.ID))

	_, err = Get(db, tenant.ID, custom.ID)
	require.ErrorIs(t, err, ErrRoleNotFound)

	var grants int64
	db.Model(&models.RolePermission{}).Where("role_id = ?", custom.ID).Count(&grants)
	assert.Zero(t, grants)
}

func TestList(t *testing.T) {
	db := setupTestDB(t)
	tenant := seedTenant(t, db, "acme")
	other := seedTenant(t, db, "globex")

	_, err := Create(db, tenant.ID, "Viewer", "", 10, nil, true)
	require.NoError(t, err)
	_, err = Create(db, tenant.ID, "Owner", "", 100, nil, true)
	require.NoError(t, err)
	_, err = Create(db, other.ID, "Owner", "", 100, nil, true)
	require.NoError(t, err)

	roles, err := List(db, tenant.ID)
	require.NoError(t, err)
	require.Len(t, roles, 2)
	// Highest level first.
	assert.Equal(t, "Owner", roles[0].Name)
	assert.Equal(t, "Viewer", roles[1].Name)
}

func TestNilDB(t *testing.T) {
	_, err := List(nil, 1)
	require.ErrorIs(t, err, ErrDBNil)
	_, err = Get(nil, 1, 1)
	require.ErrorIs(t, err, ErrDBNil)
	_, err = Create(nil, 1, "x", "", 1, nil, false)
	require.ErrorIs(t, err, ErrDBNil)
	_, err = Update(nil, 1, 1, "x", "", 1, nil)
	require.ErrorIs(t, err, ErrDBNil)
	require.ErrorIs(t, Delete(nil, 1, 1), ErrDBNil)
}
