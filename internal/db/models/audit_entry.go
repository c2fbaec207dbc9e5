package models

import "time"

// DecisionOutcome classifies how an access decision was reached.
type DecisionOutcome string

const (
	// OutcomeAllow indicates access granted through resolved permissions.
	OutcomeAllow DecisionOutcome = "allow"
	// OutcomeBypass indicates access granted through a global bypass role.
	// Kept distinct from OutcomeAllow: a bypass is an unconditional trust
	// decision and carries separate audit weight.
	OutcomeBypass DecisionOutcome = "bypass"
	// OutcomeDeny indicates access was refused.
	OutcomeDeny DecisionOutcome = "deny"
)

// AuditEntry is an append-only record of an access decision.
// Entries are written for every decision, allow and deny alike, and are never
// updated or deleted.
type AuditEntry struct {
	// ID is a lexicographically sortable ULID assigned by the recorder.
	ID string `gorm:"primaryKey;size:26"`
	// UserID is the acting principal, zero when unauthenticated.
	UserID uint64 `gorm:"index"`
	// TenantID is the tenant the decision was evaluated against, zero when
	// tenant resolution itself failed.
	TenantID uint64 `gorm:"index"`
	// GlobalRole is the principal's global role at decision time.
	GlobalRole string `gorm:"size:20"`
	// Route is the request route the decision protected.
	Route string `gorm:"size:255"`
	// Required is the comma-joined list of required permission keys.
	Required string `gorm:"size:1024"`
	// Mode records the evaluation semantics ("any" or "all").
	Mode string `gorm:"size:10"`
	// Outcome is allow, bypass, or deny.
	Outcome DecisionOutcome `gorm:"type:varchar(10);not null;index"`
	// Reason is the machine-readable decision reason code.
	Reason string `gorm:"size:100"`
	// CreatedAt is the timestamp when the decision was recorded.
	CreatedAt time.Time
}

// TableName specifies the database table name for the AuditEntry model.
func (AuditEntry) TableName() string {
	return "audit_entries"
}
