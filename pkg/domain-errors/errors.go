// Package domainerrors carries coded errors from services to transports.
//
// Code is the transport-facing category (it decides the HTTP status). Reason is
// the stable product code such as "IDVP-60000" that clients can match on, and
// Description is the formatted, human-readable detail.
package domainerrors

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeValidation         Code = "validation_error"
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeInvariantViolation Code = "invariant_violation"
	CodeInternal           Code = "internal_error"
)

// Error is a domain error with a category code and an optional product reason.
type Error struct {
	Code        Code
	Message     string
	Reason      string
	Description string
	Err         error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Description != "" {
		msg = e.Description
	}
	if e.Reason != "" {
		msg = e.Reason + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error with a category and message.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a category and message to an underlying cause.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// Catalogued builds an error for a product reason, formatting the description
// with args.
func Catalogued(code Code, reason, message, format string, args ...any) *Error {
	desc := format
	if len(args) > 0 {
		desc = fmt.Sprintf(format, args...)
	}
	return &Error{Code: code, Reason: reason, Message: message, Description: desc}
}

// WithCause returns a copy of e that wraps cause.
func (e *Error) WithCause(cause error) *Error {
	cp := *e
	cp.Err = cause
	return &cp
}

// As extracts the outermost domain error from err.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HasCode reports whether err is a domain error with the given category.
func HasCode(err error, code Code) bool {
	de, ok := As(err)
	return ok && de.Code == code
}

// Is is shorthand for HasCode, kept for call sites that read better with it.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// HasReason reports whether err is a domain error with the given product reason.
func HasReason(err error, reason string) bool {
	de, ok := As(err)
	return ok && de.Reason == reason
}

// IsClient reports whether the error is caused by the caller rather than the server.
func (e *Error) IsClient() bool {
	switch e.Code {
	case CodeInternal, "":
		return false
	default:
		return true
	}
}
