package membership

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/countersuite/countersuite/internal/auth"
	"github.com/countersuite/countersuite/internal/db/models"
)

// fixture bundles the rows most membership tests need.
type fixture struct {
	db     *gorm.DB
	tenant models.Tenant
	other  models.Tenant
	user   models.User
	role   models.Role
	role2  models.Role
}

func setupFixture(t *testing.T) *fixture {
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

	for key, desc := range auth.Catalog() {
		perm := models.Permission{
			Key:         key,
			Resource:    auth.Resource(key),
			Action:      auth.Action(key),
			Description: desc,
		}
		require.NoError(t, db.Create(&perm).Error)
	}

	f := &fixture{db: db}

	f.tenant = models.Tenant{Name: "Acme", Subdomain: "acme", Status: models.TenantStatusActive}
	require.NoError(t, db.Create(&f.tenant).Error)

	f.other = models.Tenant{Name: "Globex", Subdomain: "globex", Status: models.TenantStatusActive}
	require.NoError(t, db.Create(&f.other).Error)

	f.user = models.User{Active: true, Email: "casey@example.com", DisplayName: "Casey"}
	require.NoError(t, db.Create(&f.user).Error)

	f.role = models.Role{TenantID: f.tenant.ID, Name: "Cashier", Level: 20}
	require.NoError(t, db.Create(&f.role).Error)

	f.role2 = models.Role{TenantID: f.tenant.ID, Name: "Manager", Level: 50}
	require.NoError(t, db.Create(&f.role2).Error)

	return f
}

func TestAdd(t *testing.T) {
	f := setupFixture(t)

	m, err := Add(f.db, f.tenant.ID, f.user.ID, f.role.ID)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, models.MembershipStatusActive, m.Status)
	assert.Equal(t, f.role.ID, m.RoleID)

	// A second add while active is an error.
	_, err = Add(f.db, f.tenant.ID, f.user.ID, f.role.ID)
	require.ErrorIs(t, err, ErrMembershipExists)
}

func TestAddValidation(t *testing.T) {
	f := setupFixture(t)

	_, err := Add(f.db, f.tenant.ID, 999, f.role.ID)
	require.ErrorIs(t, err, ErrUserNotFound)

	// A role from another tenant is rejected even though the role ID exists.
	_, err = Add(f.db, f.other.ID, f.user.ID, f.role.ID)
	require.ErrorIs(t, err, ErrRoleNotInTenant)
}

func TestAddReactivatesRevokedRow(t *testing.T) {
	f := setupFixture(t)

	first, err := Add(f.db, f.tenant.ID, f.user.ID, f.role.ID)
	require.NoError(t, err)

	require.NoError(t, SetCustomPermissions(f.db, f.tenant.ID, f.user.ID, []string{auth.PermReportsView}))
	require.NoError(t, Revoke(f.db, f.tenant.ID, f.user.ID))

	second, err := Add(f.db, f.tenant.ID, f.user.ID, f.role2.ID)
	require.NoError(t, err)

	// Same row, new role, active again.
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, f.role2.ID, second.RoleID)
	assert.Equal(t, models.MembershipStatusActive, second.Status)

	// Custom permissions from the previous tenure are gone.
	keys, err := CustomPermissions(f.db, f.tenant.ID, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, keys)

	// Still exactly one row for the (user, tenant) pair.
	var count int64
	f.db.Model(&models.Membership{}).
		Where("user_id = ? AND tenant_id = ?", f.user.ID, f.tenant.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestChangeRole(t *testing.T) {
	f := setupFixture(t)

	_, err := Add(f.db, f.tenant.ID, f.user.ID, f.role.ID)
	require.NoError(t, err)

	require.NoError(t, ChangeRole(f.db, f.tenant.ID, f.user.ID, f.role2.ID))

	m, err := Get(f.db, f.tenant.ID, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, f.role2.ID, m.RoleID)

	// Cross-tenant role assignment is rejected.
	otherRole := models.Role{TenantID: f.other.ID, Name: "Owner", Level: 100}
	require.NoError(t, f.db.Create(&otherRole).Error)
	require.ErrorIs(t, ChangeRole(f.db, f.tenant.ID, f.user.ID, otherRole.ID), ErrRoleNotInTenant)

	require.ErrorIs(t, ChangeRole(f.db, f.tenant.ID, 999, f.role.ID), ErrMembershipNotFound)
}

func TestRevokeAndStatus(t *testing.T) {
	f := setupFixture(t)

	_, err := Add(f.db, f.tenant.ID, f.user.ID, f.role.ID)
	require.NoError(t, err)

	require.NoError(t, SetStatus(f.db, f.tenant.ID, f.user.ID, models.MembershipStatusSuspended))

	m, err := Get(f.db, f.tenant.ID, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MembershipStatusSuspended, m.Status)
	assert.False(t, m.IsActive())

	require.NoError(t, Revoke(f.db, f.tenant.ID, f.user.ID))

	m, err = Get(f.db, f.tenant.ID, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MembershipStatusRevoked, m.Status)

	require.ErrorIs(t, Revoke(f.db, f.tenant.ID, 999), ErrMembershipNotFound)
}

func TestSetCustomPermissions(t *testing.T) {
	f := setupFixture(t)

	_, err := Add(f.db, f.tenant.ID, f.user.ID, f.role.ID)
	require.NoError(t, err)

	err = SetCustomPermissions(f.db, f.tenant.ID, f.user.ID,
		[]string{auth.PermReportsView, auth.PermSalesRefund})
	require.NoError(t, err)

	keys, err := CustomPermissions(f.db, f.tenant.ID, f.user.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{auth.PermReportsView, auth.PermSalesRefund}, keys)

	// Replacement, not accumulation.
	err = SetCustomPermissions(f.db, f.tenant.ID, f.user.ID, []string{auth.PermReportsView})
	require.NoError(t, err)

	keys, err = CustomPermissions(f.db, f.tenant.ID, f.user.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{auth.PermReportsView}, keys)

	// Unknown keys are rejected before any write.
	err = SetCustomPermissions(f.db, f.tenant.ID, f.user.ID, []string{"sales.timetravel"})
	require.ErrorIs(t, err, auth.ErrUnknownPermissionKey)

	keys, err = CustomPermissions(f.db, f.tenant.ID, f.user.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{auth.PermReportsView}, keys)

	err = SetCustomPermissions(f.db, f.tenant.ID, 999, []string{auth.PermReportsView})
	require.ErrorIs(t, err, ErrMembershipNotFound)
}

func TestList(t *testing.T) {
	f := setupFixture(t)

	second := models.User{Active: true, Email: "jo@example.com", DisplayName: "Jo"}
	require.NoError(t, f.db.Create(&second).Error)

	_, err := Add(f.db, f.tenant.ID, f.user.ID, f.role.ID)
	require.NoError(t, err)
	_, err = Add(f.db, f.tenant.ID, second.ID, f.role2.ID)
	require.NoError(t, err)

	memberships, err := List(f.db, f.tenant.ID)
	require.NoError(t, err)
	require.Len(t, memberships, 2)
	for _, m := range memberships {
		assert.NotZero(t, m.Role.ID, "role should be preloaded")
	}

	memberships, err = List(f.db, f.other.ID)
	require.NoError(t, err)
	assert.Empty(t, memberships)
}

func TestNilDB(t *testing.T) {
	_, err := List(nil, 1)
	require.ErrorIs(t, err, ErrDBNil)
	_, err = Get(nil, 1, 1)
	require.ErrorIs(t, err, ErrDBNil)
	_, err = Add(nil, 1, 1, 1)
	require.ErrorIs(t, err, ErrDBNil)
	require.ErrorIs(t, ChangeRole(nil, 1, 1, 1), ErrDBNil)
	require.ErrorIs(t, Revoke(nil, 1, 1), ErrDBNil)
	require.ErrorIs(t, SetCustomPermissions(nil, 1, 1, nil), ErrDBNil)
}
