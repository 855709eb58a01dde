package domain

import (
	"context"
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeAlreadyExists   ErrorCode = "ALREADY_EXISTS"
	CodeFailedPrecond   ErrorCode = "FAILED_PRECONDITION"
	CodeInternal        ErrorCode = "INTERNAL"
	CodeCanceled        ErrorCode = "CANCELED"
)

// Error tags a failure with a code and the operation that produced it.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if e.Op == "" {
		if msg == "" {
			return string(e.Code)
		}
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
	if msg == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, msg)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func E(code ErrorCode, op, msg string, cause error) *Error {
	if msg == "" && cause != nil {
		msg = cause.Error()
	}
	return &Error{
		Code:    code,
		Op:      op,
		Message: msg,
		Cause:   cause,
	}
}

// Wrap attaches an operation to err, deriving the code from err when possible.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		if existing.Op != "" || op == "" {
			return existing
		}
		return &Error{
			Code:    existing.Code,
			Op:      op,
			Message: existing.Message,
			Cause:   existing.Cause,
		}
	}
	code, ok := CodeFrom(err)
	if !ok {
		code = CodeInternal
	}
	return E(code, op, "", err)
}

var (
	ErrWindowExhausted = errors.New("identifier hash window exhausted")
	ErrIndexClosed     = errors.New("content index is closed")
	ErrParentResolved  = errors.New("parent reference already resolved")
	ErrParentMissing   = errors.New("parent reference is not resolved")
)

// MissingFieldError reports a required field with no value.
type MissingFieldError struct {
	Path  string
	Field string
}

func (e *MissingFieldError) Error() string {
	return withPath(e.Path, fmt.Sprintf("%s is required", e.Field))
}

// UnknownFieldError reports a key that the record does not declare.
type UnknownFieldError struct {
	Path  string
	Field string
}

func (e *UnknownFieldError) Error() string {
	return withPath(e.Path, fmt.Sprintf("unknown field %q", e.Field))
}

// MalformedIdentifierError reports an identifier that fails its kind's grammar.
type MalformedIdentifierError struct {
	Path       string
	Identifier string
	Kind       Kind
}

func (e *MalformedIdentifierError) Error() string {
	if e.Kind == "" {
		return withPath(e.Path, fmt.Sprintf("malformed identifier %q", e.Identifier))
	}
	return withPath(e.Path, fmt.Sprintf("malformed %s identifier %q", e.Kind, e.Identifier))
}

// DuplicateIdentifierError reports a new identifier that is already indexed.
type DuplicateIdentifierError struct {
	Path       string
	Identifier string
}

func (e *DuplicateIdentifierError) Error() string {
	return withPath(e.Path, fmt.Sprintf("identifier %s already exists in the content index", e.Identifier))
}

// NotFoundError reports an identifier that should be indexed but is not.
type NotFoundError struct {
	Path       string
	Identifier string
}

func (e *NotFoundError) Error() string {
	return withPath(e.Path, fmt.Sprintf("identifier %s is not in the content index", e.Identifier))
}

// DuplicateKeyError reports two content map entries that share an identifier.
type DuplicateKeyError struct {
	Identifier string
	Existing   string
	Incoming   string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("identifier %s is used by both %s and %s", e.Identifier, e.Existing, e.Incoming)
}

// ConstraintViolationError reports a value that breaks a structural rule.
type ConstraintViolationError struct {
	Path    string
	Field   string
	Message string
}

func (e *ConstraintViolationError) Error() string {
	if e.Field == "" {
		return withPath(e.Path, e.Message)
	}
	return withPath(e.Path, fmt.Sprintf("%s: %s", e.Field, e.Message))
}

func withPath(path, msg string) string {
	if path == "" {
		return msg
	}
	return path + ": " + msg
}

// CodeFrom maps an error to its code.
func CodeFrom(err error) (ErrorCode, bool) {
	if err == nil {
		return "", false
	}
	var domainErr *Error
	if errors.As(err, &domainErr) && domainErr.Code != "" {
		return domainErr.Code, true
	}
	var (
		missing   *MissingFieldError
		unknown   *UnknownFieldError
		malformed *MalformedIdentifierError
		dupID     *DuplicateIdentifierError
		notFound  *NotFoundError
		dupKey    *DuplicateKeyError
		violation *ConstraintViolationError
	)
	switch {
	case errors.As(err, &missing), errors.As(err, &unknown), errors.As(err, &malformed), errors.As(err, &violation):
		return CodeInvalidArgument, true
	case errors.As(err, &dupID), errors.As(err, &dupKey):
		return CodeAlreadyExists, true
	case errors.As(err, &notFound):
		return CodeNotFound, true
	case errors.Is(err, ErrWindowExhausted), errors.Is(err, ErrParentMissing), errors.Is(err, ErrParentResolved):
		return CodeFailedPrecond, true
	case errors.Is(err, ErrIndexClosed):
		return CodeFailedPrecond, true
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeCanceled, true
	default:
		return "", false
	}
}
