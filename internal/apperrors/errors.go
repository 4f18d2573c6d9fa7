// Package apperrors defines the error taxonomy returned by the core services.
// Callers classify failures with errors.Is against the Err* sentinels or with
// KindOf, and map them to transport responses without inspecting messages.
package apperrors

import (
	"errors"
	"strings"
)

// Kind classifies an error for handling purposes.
type Kind int

const (
	KindUnknown Kind = iota
	// KindNotFound means a referenced entity does not exist.
	KindNotFound
	// KindForbidden means the entity exists but the actor does not own it.
	KindForbidden
	// KindInvalidRelationship means the requested edge is not allowed, e.g. self subscription.
	KindInvalidRelationship
	// KindInvalid means required input was missing or malformed.
	KindInvalid
	// KindConflict means a uniqueness constraint was violated.
	KindConflict
	// KindUploadFailed means the blob store rejected an upload.
	KindUploadFailed
	// KindStorageFailed means the entity or blob store failed outside a cascade.
	KindStorageFailed
	// KindFatal means a cascade aborted part way through.
	KindFatal
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindForbidden:
		return "forbidden"
	case KindInvalidRelationship:
		return "invalid relationship"
	case KindInvalid:
		return "invalid"
	case KindConflict:
		return "conflict"
	case KindUploadFailed:
		return "upload failed"
	case KindStorageFailed:
		return "storage failed"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Sentinels usable with errors.Is. They match any *Error of the same kind.
var (
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrForbidden           = &Error{Kind: KindForbidden}
	ErrInvalidRelationship = &Error{Kind: KindInvalidRelationship}
	ErrInvalid             = &Error{Kind: KindInvalid}
	ErrConflict            = &Error{Kind: KindConflict}
	ErrUploadFailed        = &Error{Kind: KindUploadFailed}
	ErrStorageFailed       = &Error{Kind: KindStorageFailed}
	ErrFatal               = &Error{Kind: KindFatal}
)

// Error is a classified failure with enough context to diagnose it.
type Error struct {
	Kind    Kind
	Op      string
	Entity  string
	ID      string
	Message string
	// Step is the cascade step that failed and Completed the last one that
	// succeeded. Both are empty outside cascades.
	Step      string
	Completed string
	Err       error
}

// E builds an *Error for the given kind and operation.
func E(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Entity != "" {
		b.WriteString(" ")
		b.WriteString(e.Entity)
		if e.ID != "" {
			b.WriteString(" ")
			b.WriteString(e.ID)
		}
	}
	if e.Step != "" {
		b.WriteString(" at step ")
		b.WriteString(e.Step)
		if e.Completed != "" {
			b.WriteString(" (last completed ")
			b.WriteString(e.Completed)
			b.WriteString(")")
		}
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a bare sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Op != "" || t.Err != nil || t.Entity != "" {
		return e == t
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// NotFound reports a missing entity.
func NotFound(op, entity, id string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Entity: entity, ID: id}
}

// Forbidden reports an ownership violation.
func Forbidden(op, entity, id string) *Error {
	return &Error{Kind: KindForbidden, Op: op, Entity: entity, ID: id}
}

// Invalid reports missing or malformed input.
func Invalid(op, message string) *Error {
	return &Error{Kind: KindInvalid, Op: op, Message: message}
}

// Storage wraps a store failure outside a cascade.
func Storage(op string, err error) *Error {
	return &Error{Kind: KindStorageFailed, Op: op, Err: err}
}
