package repositories

import "errors"

var (
	// ErrNotFound indicates the requested record, or a record it references, does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates the attempted write would violate a uniqueness constraint.
	ErrConflict = errors.New("record conflict")
	// ErrReferenced indicates a delete was refused because other rows still point at the record.
	ErrReferenced = errors.New("record still referenced")
	// ErrConstraint indicates the write violated a check constraint.
	ErrConstraint = errors.New("record violates constraint")
)
