package tenant

import "errors"

var (
	// ErrTenantNotFound is returned when no tenant matches the candidate identifier.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrTenantInactive is returned when the tenant exists but is not in active status.
	ErrTenantInactive = errors.New("tenant is not active")

	// ErrNoCandidate is returned when the request carries no tenant identifier at all.
	ErrNoCandidate = errors.New("no tenant candidate in request")

	// ErrTenantMismatch is returned when a request payload names a tenant other
	// than the one resolved from session or transport context.
	ErrTenantMismatch = errors.New("payload tenant does not match resolved tenant")
)
