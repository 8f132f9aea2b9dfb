package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies failures surfaced by lifecycle operations.
type ErrorKind string

// Error kinds. Callers translate these into user-facing messages or transport codes.
const (
	KindUnauthenticated  ErrorKind = "unauthenticated"
	KindPermissionDenied ErrorKind = "permission_denied"
	KindNotFound         ErrorKind = "not_found"
	KindInvalidState     ErrorKind = "invalid_state"
	KindValidationFailed ErrorKind = "validation_failed"
	KindConflict         ErrorKind = "conflict"
)

// Sentinels for errors.Is comparisons against a kind.
var (
	ErrUnauthenticated  = &Error{Kind: KindUnauthenticated}
	ErrPermissionDenied = &Error{Kind: KindPermissionDenied}
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrInvalidState     = &Error{Kind: KindInvalidState}
	ErrValidationFailed = &Error{Kind: KindValidationFailed}
	ErrConflict         = &Error{Kind: KindConflict}
)

// ValidationError is a single field-level rule violation.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the typed failure returned by the core.
type Error struct {
	Kind       ErrorKind
	Message    string
	Permission string
	Module     string
	Entity     EntityType
	ID         string
	Violations []ValidationError
	Err        error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind when target carries no message,
// which makes the package sentinels usable with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == ""
}

// Unauthenticated reports a missing principal.
func Unauthenticated() *Error {
	return &Error{Kind: KindUnauthenticated, Message: "authentication required"}
}

// PermissionDenied reports a missing capability on a module.
func PermissionDenied(permission, module string) *Error {
	return &Error{
		Kind:       KindPermissionDenied,
		Message:    fmt.Sprintf("permission denied: %s required on %s", permission, module),
		Permission: permission,
		Module:     module,
	}
}

// NotFound reports an absent or hard-deleted entity.
func NotFound(entity EntityType, id string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s %q not found", entity, id),
		Entity:  entity,
		ID:      id,
	}
}

// InvalidState reports an operation that is illegal for the entity's current state.
func InvalidState(entity EntityType, id, format string, args ...any) *Error {
	return &Error{
		Kind:    KindInvalidState,
		Message: fmt.Sprintf(format, args...),
		Entity:  entity,
		ID:      id,
	}
}

// ValidationFailed joins violations into a single failure.
func ValidationFailed(violations []ValidationError) *Error {
	msgs := make([]string, 0, len(violations))
	for _, v := range violations {
		msgs = append(msgs, v.Message)
	}
	return &Error{
		Kind:       KindValidationFailed,
		Message:    "Validation failed: " + strings.Join(msgs, "; "),
		Violations: append([]ValidationError(nil), violations...),
	}
}

// Conflict reports a storage-level uniqueness or concurrency failure.
func Conflict(entity EntityType, id, format string, args ...any) *Error {
	return &Error{
		Kind:    KindConflict,
		Message: fmt.Sprintf(format, args...),
		Entity:  entity,
		ID:      id,
	}
}

// KindOf extracts the kind from err, or "" when err is not a domain error.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsKind reports whether err carries the supplied kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
