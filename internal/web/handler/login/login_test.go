package login

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/glebarez/sqlite"

	"github.com/countersuite/countersuite/internal/auth"
	"github.com/countersuite/countersuite/internal/config"
	"github.com/countersuite/countersuite/internal/db/models"
	websess "github.com/countersuite/countersuite/internal/web/session"
)

// testStorage is a minimal in-memory implementation of storage.Storage for tests.
type testStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ storage.Storage = (*testStorage)(nil)

func (s *testStorage) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := s.data[key]
	out := make([]byte, len(v))
	copy(out, v)

	return out, nil
}

func (s *testStorage) Set(key string, val []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string][]byte)
	}

	buf := make([]byte, len(val))
	copy(buf, val)
	s.data[key] = buf

	return nil
}

func (s *testStorage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)

	return nil
}

func (s *testStorage) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string][]byte)

	return nil
}

func (s *testStorage) Close() error { return nil }

type fixture struct {
	db     *gorm.DB
	tenant *models.Tenant
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	websess.Init(&testStorage{data: make(map[string][]byte)})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Tenant{},
		&models.User{},
		&models.Role{},
		&models.Permission{},
		&models.RolePermission{},
		&models.Membership{},
		&models.MembershipPermission{},
	))

	tenant := &models.Tenant{Name: "acme", Subdomain: "acme", Status: models.TenantStatusActive}
	require.NoError(t, db.Create(tenant).Error)

	cfg := &config.Config{
		DevMode: true,
		Webserver: config.Webserver{
			Session: config.Session{ExpiryTime: time.Minute},
		},
	}

	// Route registration happens per test app in login(); Init here wires the
	// shared Handler's providers.
	require.NoError(t, Handler.Init(fiber.New(), cfg, db))

	return &fixture{db: db, tenant: tenant}
}

func (f *fixture) seedUser(t *testing.T, email, password string, role models.GlobalRole) *models.User {
	t.Helper()

	user := models.User{
		Active:      true,
		Email:       email,
		DisplayName: email,
		GlobalRole:  role,
		AuthSource:  models.AuthSourceLocal,
		Password:    models.HashPassword(password),
	}
	require.NoError(t, f.db.Create(&user).Error)

	return &user
}

func (f *fixture) addMembership(t *testing.T, userID uint64) {
	t.Helper()

	role := models.Role{TenantID: f.tenant.ID, Name: "Cashier", Level: 20, IsSystemRole: true}
	require.NoError(t, f.db.Create(&role).Error)

	m := models.Membership{
		UserID: userID, TenantID: f.tenant.ID, RoleID: role.ID,
		Status: models.MembershipStatusActive,
	}
	require.NoError(t, f.db.Create(&m).Error)
}

// login posts credentials, optionally with tenant locals injected the way the
// tenant middleware would.
func (f *fixture) login(t *testing.T, email, password string, withTenant bool) *http.Response {
	t.Helper()

	app := fiber.New()
	if withTenant {
		tenantID := f.tenant.ID
		tenant := f.tenant
		app.Use(func(c *fiber.Ctx) error {
			c.Locals(auth.LocalTenant, tenant)
			c.Locals(auth.LocalTenantID, tenantID)

			return c.Next()
		})
	}

	app.Post(Path, Handler.Post)

	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, Path, strings.NewReader(string(body)))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	require.NoError(t, err)

	return resp
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == websess.CookieName {
			return c
		}
	}

	return nil
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()

	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))

	return env.Error.Code
}

func TestLoginSuccessPinsTenant(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "casey@example.com", "secret", models.GlobalRoleMember)
	f.addMembership(t, user.ID)

	resp := f.login(t, "casey@example.com", "secret", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cookie := sessionCookie(resp)
	require.NotNil(t, cookie, "login must set the session cookie")
	assert.True(t, cookie.HttpOnly)

	var data websess.Data
	require.NoError(t, data.Read(cookie.Value))
	assert.Equal(t, user.ID, data.User.ID)
	assert.Equal(t, f.tenant.ID, data.TenantID, "session is pinned to the login tenant")

	var payload struct {
		TenantID uint64 `json:"tenant_id"`
		User     struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, f.tenant.ID, payload.TenantID)
	assert.Equal(t, "casey@example.com", payload.User.Email)
}

func TestLoginFailuresAreUniform(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "casey@example.com", "secret", models.GlobalRoleMember)
	f.addMembership(t, user.ID)

	disabled := f.seedUser(t, "gone@example.com", "secret", models.GlobalRoleMember)
	require.NoError(t, f.db.Model(disabled).Update("active", false).Error)

	outsider := f.seedUser(t, "other@example.com", "secret", models.GlobalRoleMember)
	_ = outsider // authenticates fine but holds no membership in the tenant

	testCases := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown account", "nobody@example.com", "secret"},
		{"wrong password", "casey@example.com", "wrong"},
		{"disabled account", "gone@example.com", "secret"},
		{"no membership in tenant", "other@example.com", "secret"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp := f.login(t, tc.email, tc.password, true)

			// Every failure mode gets the same answer.
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, resp))
			assert.Nil(t, sessionCookie(resp))
		})
	}
}

func TestLoginValidation(t *testing.T) {
	f := newFixture(t)

	resp := f.login(t, "", "", true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_BODY", errorCode(t, resp))
}

func TestLoginRootDomain(t *testing.T) {
	f := newFixture(t)
	member := f.seedUser(t, "casey@example.com", "secret", models.GlobalRoleMember)
	f.addMembership(t, member.ID)
	f.seedUser(t, "root@example.com", "changeme", models.GlobalRoleSuperAdmin)

	// A regular member cannot establish a session outside any tenant.
	resp := f.login(t, "casey@example.com", "secret", false)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "TENANT_ACCESS_DENIED", errorCode(t, resp))

	// A super-admin can, with no tenant pinned.
	resp = f.login(t, "root@example.com", "changeme", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cookie := sessionCookie(resp)
	require.NotNil(t, cookie)

	var data websess.Data
	require.NoError(t, data.Read(cookie.Value))
	assert.Zero(t, data.TenantID)
}
