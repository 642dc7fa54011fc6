// Package apperr holds the error taxonomy shared by the scoring, pricing,
// advertising and auth code. Callers wrap these with fmt.Errorf("...: %w")
// and test with errors.Is.
package apperr

import "errors"

var (
	// ErrInvalidArgument marks structurally invalid input (negative counters,
	// missing identifiers, unknown enum values).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrSiteUnavailable marks a single price source that failed or timed out.
	// It is never fatal for an aggregation.
	ErrSiteUnavailable = errors.New("site unavailable")

	// ErrAccountLocked is returned by the login guard while lockUntil is in the future.
	ErrAccountLocked = errors.New("account locked")

	// ErrNotFound marks a referenced product, advertisement, site or admin that does not exist.
	ErrNotFound = errors.New("not found")

	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvalidCredentials is a failed login or a bad bearer token.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrConflict marks a write that collides with a unique field.
	ErrConflict = errors.New("already exists")
)
