package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrNotFound is returned when no matching row exists (or, for reads that
// hide soft-deleted rows, when the only match is deleted).
var ErrNotFound = errors.New("property not found")

// ErrStorageUnavailable wraps connectivity-class failures: connection loss,
// pool exhaustion, request deadline expiry. Callers may retry or degrade;
// no row state has been corrupted.
var ErrStorageUnavailable = errors.New("storage unavailable")

// ValidationError reports a malformed payload or a constraint violation
// other than a duplicate key. It is never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid property data: %s %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid property data: %s", e.Reason)
}

// DuplicateError reports a collision on the (address, city, state) key.
// PropertyID carries the existing row's id when known so the caller can
// offer editing it instead of creating a duplicate.
type DuplicateError struct {
	PropertyID int64
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("property already exists (id=%d)", e.PropertyID)
}

// classify maps ORM/driver errors onto the store's error taxonomy. The
// unique constraint is the arbiter for duplicates; constraint violations
// become validation errors; everything else is treated as a transient
// storage failure.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &DuplicateError{}
	case errors.Is(err, gorm.ErrCheckConstraintViolated),
		errors.Is(err, gorm.ErrForeignKeyViolated),
		errors.Is(err, gorm.ErrInvalidData),
		errors.Is(err, gorm.ErrInvalidValue):
		return &ValidationError{Reason: err.Error()}
	default:
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
}
