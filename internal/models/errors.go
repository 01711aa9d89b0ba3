package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures surfaced to callers.
type ErrorKind string

const (
	KindUnauthenticated ErrorKind = "unauthenticated"
	KindForbidden       ErrorKind = "forbidden"
	KindNotFound        ErrorKind = "not_found"
	KindConflict        ErrorKind = "conflict"
	KindValidation      ErrorKind = "validation"
	KindInternal        ErrorKind = "internal"
)

// AppError is a user-visible failure of a known kind.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	switch {
	case e.Message == "" && e.Err == nil:
		return string(e.Kind)
	case e.Err == nil:
		return e.Message
	case e.Message == "":
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
}

func (e *AppError) Unwrap() error { return e.Err }

// Is matches any AppError of the same kind when target is one of the bare
// sentinels below, so errors.Is(err, ErrForbidden) works for every forbidden error.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

var (
	ErrUnauthenticated = &AppError{Kind: KindUnauthenticated}
	ErrForbidden       = &AppError{Kind: KindForbidden}
	ErrNotFound        = &AppError{Kind: KindNotFound}
	ErrConflict        = &AppError{Kind: KindConflict}
	ErrValidation      = &AppError{Kind: KindValidation}
)

func Unauthenticated(msg string) error { return &AppError{Kind: KindUnauthenticated, Message: msg} }
func Forbidden(msg string) error       { return &AppError{Kind: KindForbidden, Message: msg} }
func NotFound(msg string) error        { return &AppError{Kind: KindNotFound, Message: msg} }
func Conflict(msg string) error        { return &AppError{Kind: KindConflict, Message: msg} }
func Invalid(msg string) error         { return &AppError{Kind: KindValidation, Message: msg} }

func Invalidf(format string, args ...any) error {
	return &AppError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// KindOf reports the kind of err, or KindInternal for anything unclassified.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
