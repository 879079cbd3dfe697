package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sync"

	"github.com/cannaplan/gaia-commons-council/pkg/models"
	"github.com/cannaplan/gaia-commons-council/pkg/persistence"
)

// TaskRepository handles task-related file operations.
type TaskRepository struct {
	root      string
	mu        *sync.Mutex
	scenarios *ScenarioRepository
}

func (tr *TaskRepository) dir() string {
	return path.Join(tr.root, "tasks")
}

// CreateForScenario inserts a task after checking its scenario is runnable.
// The whole check-and-insert holds the store mutex, so two concurrent run
// requests against the same scenario cannot both pass the check.
func (tr *TaskRepository) CreateForScenario(_ context.Context, task *models.Task) error {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	scenario, err := tr.scenarios.read(task.ScenarioID)
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

	existing, err := tr.tasksForScenario(task.ScenarioID)
	if err != nil {
		return err
	}

	for _, t := range existing {
		if t.Status.IsActive() {
			return &persistence.TaskError{
				Op:         "CreateForScenario",
				ScenarioID: task.ScenarioID,
				Err:        persistence.ErrScenarioNotRunnable,
				Message:    fmt.Sprintf("scenario cannot be run: task %s is %s", t.TaskID, t.Status),
			}
		}
	}

	filePath := path.Join(tr.dir(), task.TaskID+".json")
	if _, err := os.Stat(filePath); err == nil {
		return persistence.NewTaskError("CreateForScenario", task.TaskID, persistence.ErrTaskAlreadyExists)
	}

	return tr.write(task)
}

// GetByID retrieves a task by its ID. A missing task is a hard not-found error.
func (tr *TaskRepository) GetByID(_ context.Context, taskID string) (*models.Task, error) {
	task, err := tr.read(taskID)
	if err != nil {
		return nil, err
	}

	if task == nil {
		return nil, persistence.NewTaskError("GetByID", taskID, persistence.ErrTaskNotFound)
	}

	return task, nil
}

// Update applies a partial patch to a stored task under the store mutex.
func (tr *TaskRepository) Update(_ context.Context, taskID string, patch persistence.TaskPatch) (*models.Task, error) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	task, err := tr.read(taskID)
	if err != nil {
		return nil, err
	}

	if task == nil {
		return nil, persistence.NewTaskError("Update", taskID, persistence.ErrTaskNotFound)
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

	if err := tr.write(task); err != nil {
		return nil, err
	}

	return task, nil
}

// Clear removes every task record.
func (tr *TaskRepository) Clear(_ context.Context) error {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	err := os.RemoveAll(tr.dir())
	if err != nil {
		return fmt.Errorf("failed to clear tasks: %w", err)
	}

	return nil
}

func (tr *TaskRepository) tasksForScenario(scenarioID string) ([]*models.Task, error) {
	root := os.DirFS(tr.dir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list task files: %w", err)
	}

	tasks := make([]*models.Task, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		taskID := file[:len(file)-5] // Remove .json extension

		task, err := tr.read(taskID)
		if err != nil {
			return nil, err
		}

		if task != nil && task.ScenarioID == scenarioID {
			tasks = append(tasks, task)
		}
	}

	return tasks, nil
}

func (tr *TaskRepository) read(taskID string) (*models.Task, error) {
	filePath := filepath.Clean(path.Join(tr.dir(), taskID+".json"))

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to fetch task %s: %w", taskID, err)
	}

	var task models.Task

	err = json.Unmarshal(body, &task)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal task %s: %w", taskID, err)
	}

	return &task, nil
}

func (tr *TaskRepository) write(task *models.Task) error {
	if err := os.MkdirAll(tr.dir(), 0750); err != nil {
		return fmt.Errorf("failed to create tasks directory: %w", err)
	}

	data, err := json.MarshalIndent(task, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal task %s: %w", task.TaskID, err)
	}

	filePath := path.Join(tr.dir(), task.TaskID+".json")

	return os.WriteFile(filePath, data, 0600)
}
