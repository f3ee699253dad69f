package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeNotFound indicates a referenced patient, provider, cohort or
	// membership does not exist
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeValidation indicates a malformed or logically impossible
	// field value (e.g. a birth date in the future)
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeTemporalOrder indicates an end date before a start date, or a
	// status/date inconsistency
	ErrorTypeTemporalOrder ErrorType = "TEMPORAL_ORDER"

	// ErrorTypeInvalidTransition indicates a status machine violation
	ErrorTypeInvalidTransition ErrorType = "INVALID_TRANSITION"

	// ErrorTypeCycle indicates a region hierarchy cycle
	ErrorTypeCycle ErrorType = "CYCLE"

	// ErrorTypeConcurrentModification indicates a multi-row invariant race
	// lost to another writer; the only kind a caller should retry
	ErrorTypeConcurrentModification ErrorType = "CONCURRENT_MODIFICATION"

	// ErrorTypeConflict indicates a conflict with existing data
	ErrorTypeConflict ErrorType = "CONFLICT"

	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "INTERNAL"

	// ErrorTypeExternal indicates an error from an external service
	ErrorTypeExternal ErrorType = "EXTERNAL"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// IsType reports whether err is an AppError of the given type
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// IsRetryable reports whether err should be retried by a well-behaved
// caller; only concurrent modification losses qualify
func IsRetryable(err error) bool {
	return IsType(err, ErrorTypeConcurrentModification)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewTemporalOrderError creates a new temporal order error
func NewTemporalOrderError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeTemporalOrder,
		Message: message,
	}
}

// NewInvalidTransitionError creates a new invalid transition error
func NewInvalidTransitionError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeInvalidTransition,
		Message: message,
	}
}

// NewCycleError creates a new cycle error
func NewCycleError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeCycle,
		Message: message,
	}
}

// NewConcurrentModificationError creates a new concurrent modification error
func NewConcurrentModificationError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeConcurrentModification,
		Message: message,
		Err:     err,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeConflict,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// NewExternalError creates a new external service error
func NewExternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeExternal,
		Message: message,
		Err:     err,
	}
}
