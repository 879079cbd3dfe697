// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrScenarioNotFound indicates a scenario was not found by the given identifier.
	ErrScenarioNotFound = errors.New("scenario not found")

	// ErrTaskNotFound indicates a task was not found by the given identifier.
	ErrTaskNotFound = errors.New("task not found")

	// ErrScenarioAlreadyExists indicates a scenario with the same identifier already exists.
	ErrScenarioAlreadyExists = errors.New("scenario already exists")

	// ErrTaskAlreadyExists indicates a task with the same identifier already exists.
	ErrTaskAlreadyExists = errors.New("task already exists")

	// ErrScenarioNotRunnable indicates a scenario cannot accept a new task because
	// it is no longer pending or already has an active task.
	ErrScenarioNotRunnable = errors.New("scenario cannot be run")
)

// ScenarioError wraps scenario-related errors with additional context.
type ScenarioError struct {
	Op         string // Operation being performed (e.g., "GetByID", "Save", "Update")
	ScenarioID string // Scenario ID if applicable
	Err        error  // Underlying error
	Message    string // Additional context message
}

func (e *ScenarioError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s operation failed for scenario %s: %s (%v)", e.Op, e.ScenarioID, e.Message, e.Err)
	}

	return fmt.Sprintf("%s operation failed for scenario %s: %v", e.Op, e.ScenarioID, e.Err)
}

func (e *ScenarioError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for scenario errors.
func (e *ScenarioError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewScenarioError creates a new scenario error with context.
func NewScenarioError(op, scenarioID string, err error) *ScenarioError {
	return &ScenarioError{
		Op:         op,
		ScenarioID: scenarioID,
		Err:        err,
	}
}

// TaskError wraps task-related errors with additional context.
type TaskError struct {
	Op         string // Operation being performed
	TaskID     string // Task ID if applicable
	ScenarioID string // Scenario ID if applicable
	Err        error  // Underlying error
	Message    string // Additional context message
}

func (e *TaskError) Error() string {
	target := e.TaskID
	if target == "" {
		target = fmt.Sprintf("scenario %s", e.ScenarioID)
	}

	if e.Message != "" {
		return fmt.Sprintf("%s operation failed for task %s: %s (%v)", e.Op, target, e.Message, e.Err)
	}

	return fmt.Sprintf("%s operation failed for task %s: %v", e.Op, target, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

func (e *TaskError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewTaskError creates a new task error with context.
func NewTaskError(op, taskID string, err error) *TaskError {
	return &TaskError{
		Op:     op,
		TaskID: taskID,
		Err:    err,
	}
}

// IsScenarioNotFound checks if an error indicates a scenario was not found.
func IsScenarioNotFound(err error) bool {
	return errors.Is(err, ErrScenarioNotFound)
}

// IsTaskNotFound checks if an error indicates a task was not found.
func IsTaskNotFound(err error) bool {
	return errors.Is(err, ErrTaskNotFound)
}

// IsScenarioAlreadyExists checks if an error indicates a duplicate scenario identifier.
func IsScenarioAlreadyExists(err error) bool {
	return errors.Is(err, ErrScenarioAlreadyExists)
}

// IsScenarioNotRunnable checks if an error indicates the scenario cannot accept a new task.
func IsScenarioNotRunnable(err error) bool {
	return errors.Is(err, ErrScenarioNotRunnable)
}
