// Package apperr defines the typed errors shared by services, repositories and
// the HTTP layer. Every error carries a machine-readable code plus a message.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

type Code string

const (
	CodeValidation       Code = "validation_error"
	CodeUnauthorized     Code = "unauthorized"
	CodeForbidden        Code = "forbidden"
	CodeNotFound         Code = "not_found"
	CodeConflict         Code = "conflict"
	CodeDuplicatePending Code = "duplicate_pending_submission"
	CodeRateLimited      Code = "rate_limited"
	CodeNotImplemented   Code = "not_implemented"
	CodeDependency       Code = "dependency_error"
)

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrValidation     = &Error{Code: CodeValidation}
	ErrUnauthorized   = &Error{Code: CodeUnauthorized}
	ErrForbidden      = &Error{Code: CodeForbidden}
	ErrNotFound       = &Error{Code: CodeNotFound}
	ErrConflict       = &Error{Code: CodeConflict}
	ErrRateLimited    = &Error{Code: CodeRateLimited}
	ErrNotImplemented = &Error{Code: CodeNotImplemented}
	ErrDependency     = &Error{Code: CodeDependency}
)

// FieldError describes a validation problem with a single input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Error struct {
	Code    Code
	Message string
	Fields  []FieldError

	// ExistingID names the pending submission that blocked a create.
	ExistingID *uuid.UUID
	// ResetHint and Max are set on rate limited errors.
	ResetHint string
	Max       int

	Err error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	}
	if len(e.Fields) == 1 {
		msg = fmt.Sprintf("%s: %s %s", msg, e.Fields[0].Field, e.Fields[0].Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports kind equality. A duplicate pending submission is also a conflict.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code == e.Code {
		return true
	}
	return t.Code == CodeConflict && e.Code == CodeDuplicatePending
}

func Validation(message string) *Error {
	return &Error{Code: CodeValidation, Message: message}
}

func ValidationField(field, message string) *Error {
	return &Error{
		Code:    CodeValidation,
		Message: "invalid input",
		Fields:  []FieldError{{Field: field, Message: message}},
	}
}

func ValidationFields(fields []FieldError) *Error {
	return &Error{Code: CodeValidation, Message: "invalid input", Fields: fields}
}

func Unauthorized(message string) *Error {
	return &Error{Code: CodeUnauthorized, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Code: CodeForbidden, Message: message}
}

func NotFound(entity string) *Error {
	return &Error{Code: CodeNotFound, Message: entity + " not found"}
}

func Conflict(message string) *Error {
	return &Error{Code: CodeConflict, Message: message}
}

func DuplicatePending(existing uuid.UUID) *Error {
	return &Error{
		Code:       CodeDuplicatePending,
		Message:    fmt.Sprintf("a pending submission already exists: %s", existing),
		ExistingID: &existing,
	}
}

func RateLimited(resetHint string, max int) *Error {
	return &Error{
		Code:      CodeRateLimited,
		Message:   fmt.Sprintf("rate limit exceeded: max %d requests, %s", max, resetHint),
		ResetHint: resetHint,
		Max:       max,
	}
}

func NotImplemented(message string) *Error {
	return &Error{Code: CodeNotImplemented, Message: message}
}

// Dependency wraps a storage or collaborator failure. Already typed errors are
// returned unchanged so callers can wrap without inspecting.
func Dependency(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Code: CodeDependency, Message: op + " failed", Err: err}
}

// CodeOf extracts the code of err, treating untyped errors as dependency failures.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeDependency
}

func HTTPStatus(code Code) int {
	switch code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeDuplicatePending:
		return http.StatusConflict
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeNotImplemented:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
