package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cannaplan/gaia-commons-council/pkg/models"
	"github.com/cannaplan/gaia-commons-council/pkg/persistence"
	goredis "github.com/redis/go-redis/v9"
)

// TaskRepository handles task-related Redis operations.
type TaskRepository struct {
	client    *goredis.Client
	scenarios *ScenarioRepository
}

// CreateForScenario inserts a task with an optimistic transaction watching the
// scenario key and its task index, so a concurrent run request invalidates the
// transaction and the check is re-evaluated.
func (tr *TaskRepository) CreateForScenario(ctx context.Context, task *models.Task) error {
	scenarioKey := scenarioKeyPrefix + task.ScenarioID
	indexKey := scenarioTasksKeyPrefix + task.ScenarioID

	txn := func(tx *goredis.Tx) error {
		scenario, err := tr.scenarios.get(ctx, tx, task.ScenarioID)
		if err != nil {
			return err
		}

		if scenario == nil {
			return &persistence.TaskError{
				Op:         "CreateForScenario",
				ScenarioID: task.ScenarioID,
				Err:        persistence.ErrScenarioNotFound,
			}
		}

		if scenario.Status != models.ExecutionStatusPending {
			return &persistence.TaskError{
				Op:         "CreateForScenario",
				ScenarioID: task.ScenarioID,
				Err:        persistence.ErrScenarioNotRunnable,
				Message:    fmt.Sprintf("scenario cannot be run: %s", scenario.Status),
			}
		}

		taskIDs, err := tx.SMembers(ctx, indexKey).Result()
		if err != nil && !errors.Is(err, goredis.Nil) {
			return fmt.Errorf("failed to list tasks for scenario %s: %w", task.ScenarioID, err)
		}

		for _, taskID := range taskIDs {
			existing, err := tr.get(ctx, tx, taskID)
			if err != nil {
				return err
			}

			if existing != nil && existing.Status.IsActive() {
				return &persistence.TaskError{
					Op:         "CreateForScenario",
					ScenarioID: task.ScenarioID,
					Err:        persistence.ErrScenarioNotRunnable,
					Message:    fmt.Sprintf("scenario cannot be run: task %s is %s", existing.TaskID, existing.Status),
				}
			}
		}

		data, err := json.Marshal(task)
		if err != nil {
			return fmt.Errorf("failed to marshal task %s: %w", task.TaskID, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, taskKeyPrefix+task.TaskID, data, 0)
			pipe.SAdd(ctx, indexKey, task.TaskID)

			return nil
		})

		return err
	}

	for range txRetries {
		err := tr.client.Watch(ctx, txn, scenarioKey, indexKey)
		if err == nil {
			return nil
		}

		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}

		return err
	}

	return fmt.Errorf("failed to create task %s: too many concurrent modifications", task.TaskID)
}

// GetByID returns a task by its ID. A missing task is a hard not-found error.
func (tr *TaskRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	task, err := tr.get(ctx, tr.client, id)
	if err != nil {
		return nil, err
	}

	if task == nil {
		return nil, persistence.NewTaskError("GetByID", id, persistence.ErrTaskNotFound)
	}

	return task, nil
}

// Update applies a partial patch via an optimistic WATCH transaction on the
// task key.
func (tr *TaskRepository) Update(ctx context.Context, id string, patch persistence.TaskPatch) (*models.Task, error) {
	var updated *models.Task

	key := taskKeyPrefix + id

	txn := func(tx *goredis.Tx) error {
		task, err := tr.get(ctx, tx, id)
		if err != nil {
			return err
		}

		if task == nil {
			return persistence.NewTaskError("Update", id, persistence.ErrTaskNotFound)
		}

		if patch.Status != nil {
			task.Status = *patch.Status
		}

		if patch.Error != nil {
			task.Error = patch.Error
		}

		if patch.StartedAt != nil {
			task.StartedAt = patch.StartedAt
		}

		if patch.FinishedAt != nil {
			task.FinishedAt = patch.FinishedAt
		}

		data, err := json.Marshal(task)
		if err != nil {
			return fmt.Errorf("failed to marshal task %s: %w", id, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)

			return nil
		})
		if err != nil {
			return err
		}

		updated = task

		return nil
	}

	for range txRetries {
		err := tr.client.Watch(ctx, txn, key)
		if err == nil {
			return updated, nil
		}

		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}

		return nil, err
	}

	return nil, fmt.Errorf("failed to update task %s: too many concurrent modifications", id)
}

// Clear removes every task record.
func (tr *TaskRepository) Clear(ctx context.Context) error {
	err := clearByPattern(ctx, tr.client, taskKeyPrefix+"*")
	if err != nil {
		return err
	}

	return clearByPattern(ctx, tr.client, scenarioTasksKeyPrefix+"*")
}

func (tr *TaskRepository) get(ctx context.Context, c goredis.Cmdable, id string) (*models.Task, error) {
	body, err := c.Get(ctx, taskKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to fetch task %s: %w", id, err)
	}

	var task models.Task

	err = json.Unmarshal(body, &task)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal task %s: %w", id, err)
	}

	return &task, nil
}
