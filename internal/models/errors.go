package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for validation.
var (
	ErrMissingWebID      = errors.New("web id is required")
	ErrMissingEntityID   = errors.New("entity id is required")
	ErrMissingEntityType = errors.New("at least one entity type id is required")
	ErrMissingSchema     = errors.New("schema is required")
)

// Sentinel errors for lookups.
var (
	ErrEntityNotFound     = errors.New("entity not found")
	ErrEntityTypeNotFound = errors.New("entity type not found")
	ErrWebNotFound        = errors.New("web not found")
)

// ErrDuplicateKey indicates a unique constraint violation (maps to HTTP 409 Conflict).
var ErrDuplicateKey = errors.New("duplicate key")

// ErrPermissionDenied indicates the authorization backend refused the
// actor's action (maps to HTTP 403 Forbidden).
var ErrPermissionDenied = errors.New("permission denied")

// ErrRaceConditionOnUpdate indicates a concurrent mutation closed the
// targeted row first; the whole operation may be retried by the caller.
var ErrRaceConditionOnUpdate = errors.New("the entity was updated concurrently")

// CompensationFailureError reports a mutation whose storage commit
// failed after its authorization relationships were already written,
// and whose compensating delete against the authorization store then
// failed too. Both failures are real inconsistencies an operator must
// reconcile, so neither may mask the other.
type CompensationFailureError struct {
	Cause           error
	CompensationErr error
}

// Error implements the error interface.
func (e *CompensationFailureError) Error() string {
	return fmt.Sprintf("mutation failed: %v; compensating relationship delete also failed: %v",
		e.Cause, e.CompensationErr)
}

// Unwrap exposes both underlying errors to errors.Is/As.
func (e *CompensationFailureError) Unwrap() []error {
	return []error{e.Cause, e.CompensationErr}
}

// ErrFieldTooLong returns an error indicating a field exceeds its maximum length.
func ErrFieldTooLong(field string, maxLen int) error {
	return fmt.Errorf("%s exceeds maximum length of %d", field, maxLen)
}
