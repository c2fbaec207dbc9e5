package audit

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/countersuite/countersuite/internal/db/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	require.NoError(t, db.AutoMigrate(&models.AuditEntry{}))

	return db
}

func TestRecorderPersistsEntry(t *testing.T) {
	db := setupTestDB(t)
	rec := NewRecorder(db)

	id := rec.Record(Event{
		UserID:     7,
		TenantID:   3,
		GlobalRole: string(models.GlobalRoleMember),
		Route:      "/customers",
		Required:   []string{"customers.view", "customers.edit"},
		RequireAll: true,
		Outcome:    models.OutcomeDeny,
		Reason:     "INSUFFICIENT_PERMISSIONS",
	})

	_, err := ulid.ParseStrict(id)
	require.NoError(t, err, "audit IDs are ULIDs")

	var entry models.AuditEntry
	require.NoError(t, db.First(&entry, "id = ?", id).Error)

	assert.Equal(t, uint64(7), entry.UserID)
	assert.Equal(t, uint64(3), entry.TenantID)
	assert.Equal(t, "/customers", entry.Route)
	assert.Equal(t, "customers.view,customers.edit", entry.Required)
	assert.Equal(t, "all", entry.Mode)
	assert.Equal(t, models.OutcomeDeny, entry.Outcome)
	assert.Equal(t, "INSUFFICIENT_PERMISSIONS", entry.Reason)
	assert.False(t, entry.CreatedAt.IsZero())
}

func TestRecorderIDsAreOrdered(t *testing.T) {
	db := setupTestDB(t)
	rec := NewRecorder(db)

	var prev string

	for i := 0; i < 10; i++ {
		id := rec.Record(Event{Route: "/dashboard", Outcome: models.OutcomeAllow, Reason: "PERMISSION_MATCH"})
		require.Greater(t, id, prev, "ULIDs must be strictly increasing")
		prev = id
	}

	var count int64
	require.NoError(t, db.Model(&models.AuditEntry{}).Count(&count).Error)
	assert.EqualValues(t, 10, count)
}

func TestRecorderModeLabel(t *testing.T) {
	db := setupTestDB(t)
	rec := NewRecorder(db)

	anyID := rec.Record(Event{Route: "/r", Outcome: models.OutcomeAllow})
	allID := rec.Record(Event{Route: "/r", Outcome: models.OutcomeAllow, RequireAll: true})

	var entry models.AuditEntry
	require.NoError(t, db.First(&entry, "id = ?", anyID).Error)
	assert.Equal(t, "any", entry.Mode)

	entry = models.AuditEntry{}
	require.NoError(t, db.First(&entry, "id = ?", allID).Error)
	assert.Equal(t, "all", entry.Mode)
}

func TestRecorderStorageFailureIsNotFatal(t *testing.T) {
	db := setupTestDB(t)
	rec := NewRecorder(db)

	require.NoError(t, db.Exec("DROP TABLE audit_entries").Error)

	// The write fails but the caller still gets an ID: auditing never turns
	// a made decision into a request failure.
	id := rec.Record(Event{Route: "/r", Outcome: models.OutcomeBypass, Reason: "BYPASS_ROLE"})
	assert.NotEmpty(t, id)
}
