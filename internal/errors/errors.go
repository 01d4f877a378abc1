package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Domain-specific error types
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrDuplicateEntry indicates a unique constraint violation
	ErrDuplicateEntry = errors.New("duplicate entry")

	// ErrInvalidInput indicates invalid input data
	ErrInvalidInput = errors.New("invalid input")

	// ErrMessageNotFound indicates the message was not found
	ErrMessageNotFound = errors.New("message not found")

	// ErrLabelNotFound indicates the label was not found
	ErrLabelNotFound = errors.New("label not found")

	// ErrUserNotFound indicates the user was not found
	ErrUserNotFound = errors.New("user not found")

	// ErrRecipientNotFound indicates one or more participant addresses could
	// not be resolved to a contactable identity. Delivery is all-or-nothing:
	// nothing has been persisted when this is returned.
	ErrRecipientNotFound = errors.New("recipient not found or unverified")

	// ErrUnauthorized indicates unauthorized access
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates forbidden access
	ErrForbidden = errors.New("forbidden")

	// ErrDeliveryFailed indicates a storage failure after participant
	// validation passed. Copies persisted before the failure are not rolled
	// back; details are logged for reconciliation.
	ErrDeliveryFailed = errors.New("delivery failed")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal server error")
)

// Error codes for API responses
const (
	CodeNotFound          = "NOT_FOUND"
	CodeDuplicateEntry    = "DUPLICATE_ENTRY"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeRecipientNotFound = "RECIPIENT_NOT_FOUND"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeDeliveryFailed    = "DELIVERY_FAILED"
	CodeInternalError     = "INTERNAL_ERROR"
)

// AppError represents an application error with context
type AppError struct {
	Err     error
	Message string
	Code    string
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError
func NewAppError(err error, message string, code string) *AppError {
	return &AppError{
		Err:     err,
		Message: message,
		Code:    code,
	}
}

// ValidationError reports a malformed or missing required field. Nothing is
// persisted when a compose operation fails validation.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid field %q", e.Field)
}

// Unwrap returns the underlying sentinel
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError creates a ValidationError naming the offending field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// RecipientNotFoundError reports the participant addresses that failed to
// resolve to contactable identities.
type RecipientNotFoundError struct {
	Addresses []string
}

// Error implements the error interface
func (e *RecipientNotFoundError) Error() string {
	return fmt.Sprintf("recipients not found or unverified: %s", strings.Join(e.Addresses, ", "))
}

// Unwrap returns the underlying sentinel
func (e *RecipientNotFoundError) Unwrap() error {
	return ErrRecipientNotFound
}

// NewRecipientNotFoundError creates a RecipientNotFoundError.
func NewRecipientNotFoundError(addresses []string) *RecipientNotFoundError {
	return &RecipientNotFoundError{Addresses: addresses}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrMessageNotFound) ||
		errors.Is(err, ErrLabelNotFound) ||
		errors.Is(err, ErrUserNotFound)
}

// IsDuplicateEntry checks if the error is a duplicate entry error
func IsDuplicateEntry(err error) bool {
	return errors.Is(err, ErrDuplicateEntry)
}

// IsInvalidInput checks if the error is an invalid input error
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsRecipientNotFound checks if the error is a recipient resolution failure
func IsRecipientNotFound(err error) bool {
	return errors.Is(err, ErrRecipientNotFound)
}

// GetErrorCode returns the appropriate error code for an error
func GetErrorCode(err error) string {
	switch {
	case IsRecipientNotFound(err):
		return CodeRecipientNotFound
	case IsNotFound(err):
		return CodeNotFound
	case IsDuplicateEntry(err):
		return CodeDuplicateEntry
	case IsInvalidInput(err):
		return CodeInvalidInput
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, ErrForbidden):
		return CodeForbidden
	case errors.Is(err, ErrDeliveryFailed):
		return CodeDeliveryFailed
	default:
		return CodeInternalError
	}
}
