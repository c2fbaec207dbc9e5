// Package audit writes the append-only trail of access decisions.
// Every decision the middleware makes, allow, deny and bypass alike, produces
// one entry; bypass allows are tagged distinctly because they represent an
// unconditional trust decision.
package audit

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/countersuite/countersuite/internal/db/models"
)

// Event is one access decision to be recorded.
type Event struct {
	UserID     uint64
	TenantID   uint64
	GlobalRole string
	Route      string
	Required   []string
	RequireAll bool
	Outcome    models.DecisionOutcome
	Reason     string
}

// Recorder persists audit entries and mirrors them to the structured log.
type Recorder struct {
	db      *gorm.DB
	mu      sync.Mutex
	entropy io.Reader
	now     func() time.Time
}

// NewRecorder creates an audit recorder backed by the given database.
func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{
		db:      db,
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// Record writes one audit entry. A storage failure is logged but not returned:
// the decision itself has already been made and auditing must never flip an
// allow into a failure visible to the caller.
func (r *Recorder) Record(ev Event) string {
	entry := models.AuditEntry{
		ID:         r.newID(),
		UserID:     ev.UserID,
		TenantID:   ev.TenantID,
		GlobalRole: ev.GlobalRole,
		Route:      ev.Route,
		Required:   strings.Join(ev.Required, ","),
		Mode:       modeLabel(ev.RequireAll),
		Outcome:    ev.Outcome,
		Reason:     ev.Reason,
		CreatedAt:  r.now(),
	}

	if err := r.db.Create(&entry).Error; err != nil {
		log.Error().Err(err).Str("audit_id", entry.ID).Msg("failed to persist audit entry")
	}

	logEvent := log.Info()
	if ev.Outcome == models.OutcomeDeny {
		logEvent = log.Warn()
	}

	logEvent.
		Str("audit_id", entry.ID).
		Uint64("user_id", ev.UserID).
		Uint64("tenant_id", ev.TenantID).
		Str("global_role", ev.GlobalRole).
		Str("route", ev.Route).
		Strs("required", ev.Required).
		Str("mode", entry.Mode).
		Str("outcome", string(ev.Outcome)).
		Str("reason", ev.Reason).
		Msg("access decision")

	return entry.ID
}

func (r *Recorder) newID() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(r.now()), r.entropy)
	if err != nil {
		// Entropy exhaustion is the only failure mode; fall back to a
		// timestamp-only ID rather than dropping the entry.
		return fmt.Sprintf("%026d", ulid.Timestamp(r.now()))
	}

	return id.String()
}

func modeLabel(requireAll bool) string {
	if requireAll {
		return "all"
	}

	return "any"
}
