// Package persistence provides the data storage abstraction layer for
// scenarios and tasks.
package persistence

import (
	"context"
	"time"

	"github.com/cannaplan/gaia-commons-council/pkg/models"
)

// ScenarioPatch is a partial field update for a scenario record. Nil fields
// are left untouched; an implementation must apply the whole patch atomically
// with respect to concurrent writers.
type ScenarioPatch struct {
	Status     *models.ExecutionStatus
	Result     *models.ScenarioResult
	StartedAt  *time.Time
	FinishedAt *time.Time
}

// TaskPatch is a partial field update for a task record, with the same
// atomicity contract as ScenarioPatch.
type TaskPatch struct {
	Status     *models.ExecutionStatus
	Error      *string
	StartedAt  *time.Time
	FinishedAt *time.Time
}

// ScenarioRepository stores scenario records keyed by their identifier.
type ScenarioRepository interface {
	// Save inserts a new scenario. It returns ErrScenarioAlreadyExists when
	// the identifier is already taken.
	Save(ctx context.Context, scenario *models.Scenario) error

	// GetByID returns the scenario, or (nil, nil) when it does not exist.
	// Absence is an expected outcome for lookups, not an error.
	GetByID(ctx context.Context, id string) (*models.Scenario, error)

	// Update applies the patch and returns the updated record. It returns
	// ErrScenarioNotFound when the identifier does not exist.
	Update(ctx context.Context, id string, patch ScenarioPatch) (*models.Scenario, error)

	// Clear deletes all scenario records. Test and operational reset only.
	Clear(ctx context.Context) error
}

// TaskRepository stores task records keyed by their task identifier.
type TaskRepository interface {
	// CreateForScenario inserts the task only if its scenario exists, is still
	// pending, and has no other active task. The check and the insert happen
	// in a single storage transaction so that two concurrent attempts against
	// the same scenario cannot both succeed. It returns ErrScenarioNotFound or
	// ErrScenarioNotRunnable accordingly.
	CreateForScenario(ctx context.Context, task *models.Task) error

	// GetByID returns the task. A missing task is ErrTaskNotFound; callers
	// treat it as a hard not-found outcome.
	GetByID(ctx context.Context, id string) (*models.Task, error)

	// Update applies the patch and returns the updated record. It returns
	// ErrTaskNotFound when the identifier does not exist.
	Update(ctx context.Context, id string, patch TaskPatch) (*models.Task, error)

	// Clear deletes all task records. Test and operational reset only.
	Clear(ctx context.Context) error
}

type Persistence interface {
	ScenarioRepository() ScenarioRepository
	TaskRepository() TaskRepository
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
