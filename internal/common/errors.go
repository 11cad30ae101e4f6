package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")

	// ErrServiceError is a failed remote call (transport, non-2xx, job error).
	ErrServiceError = errors.New("remote service error")
	// ErrServiceTimeout means a remote call or OCR job exceeded its bound.
	ErrServiceTimeout = errors.New("remote service timeout")
	// ErrParseFailure means neither the OCR service nor local extraction produced text.
	ErrParseFailure = errors.New("parse failure")
	// ErrExtraction wraps any failure of the graph extraction collaborator.
	ErrExtraction = errors.New("extraction failed")
	// ErrDestinationExists guards lifecycle moves against overwriting.
	ErrDestinationExists = errors.New("destination already exists")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// causeError joins a sentinel with the concrete cause so errors.Is matches both.
type causeError struct {
	kind  error
	cause error
}

func (e *causeError) Error() string {
	return fmt.Sprintf("%v: %v", e.kind, e.cause)
}

func (e *causeError) Unwrap() []error {
	return []error{e.kind, e.cause}
}

// Tag marks cause with the sentinel kind. A nil cause yields the bare kind.
func Tag(kind, cause error) error {
	if cause == nil {
		return kind
	}
	return &causeError{kind: kind, cause: cause}
}
