package service

import (
	"errors"
	"fmt"
)

// Kind classifies a service failure for status-code mapping.
type Kind int

// Failure kinds.
const (
	KindUnknown Kind = iota
	KindValidation
	KindConfiguration
	KindStore
)

// String returns the kind name exposed to clients in the "type" field.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindConfiguration:
		return "ConfigurationError"
	case KindStore:
		return "StoreError"
	default:
		return "Error"
	}
}

// Error is the single failure type returned by the service.
// It is built where the failure is detected and carries its kind with it.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Cause returns the underlying error message, or "" if there is none.
func (e *Error) Cause() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// KindOf returns the Kind of err, or KindUnknown if err is not an *Error.
func KindOf(err error) Kind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindUnknown
}

// Validation errors.
var (
	ErrEmailMissing   = errors.New("email field is missing or null")
	ErrEmailNotString = errors.New("email field must be a string")
	ErrEmailEmpty     = errors.New("email must not be empty")
	ErrEmailMalformed = errors.New("email address is malformed")
)

// Configuration and store errors.
var (
	ErrNotConfigured = errors.New("database configuration is missing")
	ErrInvalidConfig = errors.New("database configuration is invalid")
)

func newValidationError(cause error) *Error {
	return &Error{Kind: KindValidation, Message: "Invalid email address", Err: cause}
}

func newConfigurationError() *Error {
	return &Error{Kind: KindConfiguration, Message: "Database configuration is missing", Err: ErrNotConfigured}
}

// newInvalidConfigurationError keeps cause out of the message: it may
// carry the connection string.
func newInvalidConfigurationError(cause error) *Error {
	return &Error{
		Kind:    KindConfiguration,
		Message: "Database configuration is invalid",
		Err:     fmt.Errorf("%w: %w", ErrInvalidConfig, cause),
	}
}

func newStoreError(message string, cause error) *Error {
	return &Error{Kind: KindStore, Message: message, Err: cause}
}
