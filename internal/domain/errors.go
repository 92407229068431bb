package domain

import "errors"

var (
	// ErrNotFound is returned when an id or access token does not
	// resolve to a record.
	ErrNotFound = errors.New("not found")

	// ErrTerminalState is returned when a lifecycle transition is
	// attempted on a completed or revoked invitation.
	ErrTerminalState = errors.New("invitation is in a terminal state")

	// ErrExpired is returned when an invitation's expiry has passed.
	// Expiry is computed from expires_at at read time; the stored
	// status is never rewritten.
	ErrExpired = errors.New("invitation has expired")

	// ErrValidation is returned for malformed input: unknown status
	// values, missing required fields, non-positive expiry days.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned when issuing would leave two active
	// invitations on the same assessment.
	ErrConflict = errors.New("conflict")
)
