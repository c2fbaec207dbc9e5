package models

import (
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog/log"
)

// AuthSource represents the authentication source for a user account.
type AuthSource string

const (
	// AuthSourceLocal indicates the user authenticates with a local database password.
	AuthSourceLocal AuthSource = "local"
	// AuthSourceOIDC indicates the user authenticates via OpenID Connect (OIDC).
	AuthSourceOIDC AuthSource = "oidc"
)

// GlobalRole is the tenant-agnostic role tag on a principal.
// It exists only for top-of-hierarchy bypass decisions; all real authorization
// flows through tenant memberships.
type GlobalRole string

const (
	// GlobalRoleSuperAdmin is the highest-privilege principal role. It bypasses
	// permission resolution entirely and is the only role allowed to edit
	// system roles.
	GlobalRoleSuperAdmin GlobalRole = "superadmin"
	// GlobalRoleStaff marks internal support staff without bypass rights.
	GlobalRoleStaff GlobalRole = "staff"
	// GlobalRoleMember is the default for regular customers.
	GlobalRoleMember GlobalRole = "member"
)

// User represents a principal. A user holds no tenant-scoped rights by itself;
// authorization is granted through Membership records binding the user to a
// tenant and a role.
type User struct {
	// ID is the unique identifier for the user.
	ID uint64 `gorm:"primaryKey"`
	// Active indicates whether the account can log in.
	Active bool
	// Email is the unique login identifier.
	Email string `gorm:"uniqueIndex;size:255;not null"`
	// DisplayName is the user's display name.
	DisplayName string `gorm:"size:255"`
	// Password is the Argon2id hashed password (only used for local authentication).
	Password string `gorm:"size:255"`
	// GlobalRole is the tenant-agnostic role tag (superadmin, staff, member).
	GlobalRole GlobalRole `gorm:"type:varchar(20);not null;default:'member'"`
	// AuthSource indicates how this user authenticates (local or oidc).
	AuthSource AuthSource `gorm:"type:varchar(20);not null;default:'local'"`
	// ExternalID is the external identifier for OIDC users (sub claim).
	ExternalID string `gorm:"size:255"`
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the user was last updated (managed by GORM).
	UpdatedAt time.Time
	// DeletedAt is the soft delete timestamp (nil if not deleted, managed by GORM).
	DeletedAt *time.Time
}

// TableName specifies the database table name for the User model.
func (User) TableName() string {
	return "users"
}

// IsSuperAdmin reports whether the user holds the global bypass role.
func (u *User) IsSuperAdmin() bool {
	return u.GlobalRole == GlobalRoleSuperAdmin
}

// HashPassword hashes a plaintext password using the Argon2id algorithm.
// This function should be used when creating or updating local user passwords.
func HashPassword(password string) string {
	hashedPassword, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		log.Fatal().Msgf("failed to hash password: %v", err)
	}

	return hashedPassword
}

// VerifyPassword verifies a plaintext password against the user's stored hashed password.
// It uses constant-time comparison to prevent timing attacks.
func (u *User) VerifyPassword(password string) bool {
	match, err := argon2id.ComparePasswordAndHash(password, u.Password)
	if err != nil {
		log.Error().Msgf("failed to verify password: %v", err)
		return false
	}

	return match
}
