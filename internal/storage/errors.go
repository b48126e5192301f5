// ABOUTME: Storage error taxonomy separating I/O failures from constraint violations
// ABOUTME: Maps driver-level sqlite errors onto the store's error types

package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
)

// ErrNotFound is returned when a feed or entry lookup matches nothing.
var ErrNotFound = errors.New("not found")

// Kind classifies a storage failure.
type Kind string

const (
	// KindIOFailure covers disk and driver trouble: the operation did
	// not complete and retrying without intervention is unlikely to help.
	KindIOFailure Kind = "io_failure"
	// KindConstraintViolation means a uniqueness or foreign-key rule
	// rejected the write.
	KindConstraintViolation Kind = "constraint_violation"
)

// Error wraps a failed storage operation with its classification.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage %s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsConstraint reports whether err is a constraint violation.
func IsConstraint(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == KindConstraintViolation
}

// wrap classifies a driver error under the named operation. Row-miss
// errors become ErrNotFound so callers can branch with errors.Is.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	var se *sqlite.Error
	if errors.As(err, &se) && se.Code()&0xff == 19 { // SQLITE_CONSTRAINT and its extended codes
		return &Error{Kind: KindConstraintViolation, Op: op, Err: err}
	}

	return &Error{Kind: KindIOFailure, Op: op, Err: err}
}
