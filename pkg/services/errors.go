// Package services provides standardized error types for service layer operations.
package services

import (
	"errors"
	"fmt"

	"github.com/cannaplan/gaia-commons-council/pkg/persistence"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest    = errors.New("invalid request")
	ErrEmptyScenarioName = errors.New("scenario name cannot be empty")
	ErrEmptyScenarioID   = errors.New("scenario ID cannot be empty")
	ErrEmptyTaskID       = errors.New("task ID cannot be empty")

	// Business Logic Conflicts (409 Conflict).
	ErrScenarioNotRunnable = persistence.ErrScenarioNotRunnable

	// Not Found (404).
	ErrScenarioNotFound = persistence.ErrScenarioNotFound
	ErrTaskNotFound     = persistence.ErrTaskNotFound
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrEmptyScenarioName) ||
		errors.Is(err, ErrEmptyScenarioID) ||
		errors.Is(err, ErrEmptyTaskID)
}

// IsConflictError checks if an error is a business logic conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrScenarioNotRunnable)
}

// IsNotFoundError checks if an error indicates a missing entity that should return HTTP 404.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrScenarioNotFound) ||
		errors.Is(err, ErrTaskNotFound)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
