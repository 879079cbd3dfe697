package services

import (
	"context"
	"fmt"
	"time"

	"github.com/cannaplan/gaia-commons-council/pkg/models"
	"github.com/cannaplan/gaia-commons-council/pkg/persistence"
	"github.com/google/uuid"
)

// Task owns the task entity: one asynchronous execution attempt per record.
type Task struct {
	persistence persistence.Persistence
}

// NewTask creates a new task service.
func NewTask(persistence persistence.Persistence) *Task {
	return &Task{
		persistence: persistence,
	}
}

// Create registers a new pending task for the scenario. The repository's
// atomic check-and-insert enforces the at-most-one-active-task rule; the
// resulting sentinel errors flow through unchanged so callers can map them to
// not-found and conflict outcomes.
func (t *Task) Create(ctx context.Context, scenarioID string) (*models.Task, error) {
	if scenarioID == "" {
		return nil, NewValidationError("CreateTask", "EMPTY_SCENARIO_ID", "scenario ID is required", ErrEmptyScenarioID)
	}

	task := &models.Task{
		TaskID:     uuid.New().String(),
		ScenarioID: scenarioID,
		Status:     models.ExecutionStatusPending,
		CreatedAt:  time.Now().UTC(),
	}

	err := t.persistence.TaskRepository().CreateForScenario(ctx, task)
	if err != nil {
		if persistence.IsScenarioNotFound(err) || persistence.IsScenarioNotRunnable(err) {
			return nil, err
		}

		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return task, nil
}

// Get retrieves a task by its ID. A missing task is a hard not-found error.
func (t *Task) Get(ctx context.Context, taskID string) (*models.Task, error) {
	if taskID == "" {
		return nil, NewValidationError("GetTask", "EMPTY_TASK_ID", "task ID is required", ErrEmptyTaskID)
	}

	return t.persistence.TaskRepository().GetByID(ctx, taskID)
}

// Update applies a partial patch and returns the updated record. A status
// change must follow the forward-only lifecycle; backward or skipping moves
// are rejected before touching the store.
func (t *Task) Update(ctx context.Context, taskID string, patch persistence.TaskPatch) (*models.Task, error) {
	if taskID == "" {
		return nil, NewValidationError("UpdateTask", "EMPTY_TASK_ID", "task ID is required", ErrEmptyTaskID)
	}

	if patch.Status != nil {
		current, err := t.persistence.TaskRepository().GetByID(ctx, taskID)
		if err != nil {
			return nil, err
		}

		if !current.Status.CanTransitionTo(*patch.Status) {
			return nil, NewValidationError(
				"UpdateTask",
				"ILLEGAL_STATUS_TRANSITION",
				fmt.Sprintf("task cannot move from %s to %s", current.Status, *patch.Status),
				ErrInvalidRequest,
			)
		}
	}

	return t.persistence.TaskRepository().Update(ctx, taskID, patch)
}
