package store

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a record does not exist, or exists but is
	// not visible to the caller. Ownership mismatches are deliberately
	// indistinguishable from missing rows.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a delete is blocked by dependent records
	ErrConflict = errors.New("delete blocked by dependent records")
)

// FieldError reports a validation failure for a single input field
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// AsFieldError unwraps err into a *FieldError if possible
func AsFieldError(err error) (*FieldError, bool) {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// isUniqueViolation reports whether err is a unique constraint violation,
// optionally restricted to a named constraint
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if pqErr.Code != "23505" {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

// isForeignKeyViolation reports whether err is a foreign key violation
func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}
