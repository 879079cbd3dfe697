package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cannaplan/gaia-commons-council/pkg/models"
	"github.com/cannaplan/gaia-commons-council/pkg/persistence"
	"github.com/lib/pq"
)

// TaskRepository handles task-related database operations.
type TaskRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewTaskRepository creates a new task repository.
func NewTaskRepository(db *sql.DB, logger *slog.Logger) *TaskRepository {
	return &TaskRepository{db: db, logger: logger}
}

// CreateForScenario inserts the task in one transaction that locks the
// scenario row, so two concurrent run requests against the same scenario
// serialize on the row lock and only one passes the runnable check.
func (r *TaskRepository) CreateForScenario(ctx context.Context, task *models.Task) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	var status string

	err = tx.QueryRowContext(ctx,
		"SELECT status FROM scenarios WHERE id = $1 FOR UPDATE",
		task.ScenarioID,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &persistence.TaskError{
				Op:         "CreateForScenario",
				ScenarioID: task.ScenarioID,
				Err:        persistence.ErrScenarioNotFound,
			}
		}

		return fmt.Errorf("failed to lock scenario %s: %w", task.ScenarioID, err)
	}

	if models.ExecutionStatus(status) != models.ExecutionStatusPending {
		return &persistence.TaskError{
			Op:         "CreateForScenario",
			ScenarioID: task.ScenarioID,
			Err:        persistence.ErrScenarioNotRunnable,
			Message:    fmt.Sprintf("scenario cannot be run: %s", status),
		}
	}

	var activeCount int

	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tasks WHERE scenario_id = $1 AND status IN ('pending', 'running')",
		task.ScenarioID,
	).Scan(&activeCount)
	if err != nil {
		return fmt.Errorf("failed to count active tasks for scenario %s: %w", task.ScenarioID, err)
	}

	if activeCount > 0 {
		return &persistence.TaskError{
			Op:         "CreateForScenario",
			ScenarioID: task.ScenarioID,
			Err:        persistence.ErrScenarioNotRunnable,
			Message:    "scenario cannot be run: an active task already exists",
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tasks (task_id, scenario_id, status, error, created_at, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		task.TaskID,
		task.ScenarioID,
		string(task.Status),
		task.Error,
		task.CreatedAt,
		task.StartedAt,
		task.FinishedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolationCode {
			return persistence.NewTaskError("CreateForScenario", task.TaskID, persistence.ErrTaskAlreadyExists)
		}

		return fmt.Errorf("failed to insert task %s: %w", task.TaskID, err)
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit task %s: %w", task.TaskID, err)
	}

	return nil
}

// GetByID returns a task by its ID. A missing task is a hard not-found error.
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	query := `
		SELECT
			task_id
		  , scenario_id
		  , status
		  , error
		  , created_at
		  , started_at
		  , finished_at
		FROM tasks
		WHERE task_id = $1
	`

	task, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewTaskError("GetByID", id, persistence.ErrTaskNotFound)
		}

		return nil, fmt.Errorf("failed to query task %s: %w", id, err)
	}

	return task, nil
}

// Update applies a partial patch in a single UPDATE statement and returns the
// updated record.
func (r *TaskRepository) Update(ctx context.Context, id string, patch persistence.TaskPatch) (*models.Task, error) {
	var status *string
	if patch.Status != nil {
		s := string(*patch.Status)
		status = &s
	}

	query := `
		UPDATE tasks SET
			status = COALESCE($2, status)
		  , error = COALESCE($3, error)
		  , started_at = COALESCE($4, started_at)
		  , finished_at = COALESCE($5, finished_at)
		WHERE task_id = $1
		RETURNING task_id, scenario_id, status, error, created_at, started_at, finished_at
	`

	task, err := scanTask(r.db.QueryRowContext(ctx, query, id, status, patch.Error, patch.StartedAt, patch.FinishedAt))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewTaskError("Update", id, persistence.ErrTaskNotFound)
		}

		return nil, fmt.Errorf("failed to update task %s: %w", id, err)
	}

	return task, nil
}

// Clear removes every task record.
func (r *TaskRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM tasks")
	if err != nil {
		return fmt.Errorf("failed to clear tasks: %w", err)
	}

	return nil
}

func scanTask(row rowScanner) (*models.Task, error) {
	var (
		task       models.Task
		status     string
		errText    sql.NullString
		startedAt  sql.NullTime
		finishedAt sql.NullTime
	)

	err := row.Scan(
		&task.TaskID,
		&task.ScenarioID,
		&status,
		&errText,
		&task.CreatedAt,
		&startedAt,
		&finishedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Status = models.ExecutionStatus(status)

	if errText.Valid {
		task.Error = &errText.String
	}

	if startedAt.Valid {
		task.StartedAt = &startedAt.Time
	}

	if finishedAt.Valid {
		task.FinishedAt = &finishedAt.Time
	}

	return &task, nil
}
