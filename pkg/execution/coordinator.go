// Package execution drives one scenario run from dispatch to a terminal state.
package execution

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cannaplan/gaia-commons-council/pkg/models"
	"github.com/cannaplan/gaia-commons-council/pkg/otelhelper"
	"github.com/cannaplan/gaia-commons-council/pkg/persistence"
	"github.com/cannaplan/gaia-commons-council/pkg/services"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Coordinator sequences the status transitions of a task and its scenario
// around the placeholder execution. It is invoked exactly once per created
// task; re-entry from terminal states is rejected upstream at task creation.
type Coordinator struct {
	persistence persistence.Persistence
	scenarios   *services.Scenario
	tasks       *services.Task
	logger      *slog.Logger
}

// NewCoordinator creates a new execution coordinator.
func NewCoordinator(p persistence.Persistence, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		persistence: p,
		scenarios:   services.NewScenario(p),
		tasks:       services.NewTask(p),
		logger:      logger.With("module", "execution"),
	}
}

// Outcome is the recorded end state of one task execution.
type Outcome struct {
	Status models.ExecutionStatus
	Error  string
}

// Run executes one dispatched task. The returned outcome mirrors what was
// written to the task record; the error is non-nil only when the task record
// itself could not be updated. A failed scenario run still yields a nil
// error: the failure is recorded on the task and observed by polling, never
// propagated back to the caller that enqueued it.
func (c *Coordinator) Run(ctx context.Context, taskID, scenarioID string) (*Outcome, error) {
	tracer := otel.Tracer("gaia-execution")

	ctx, span := otelhelper.StartSpan(ctx, tracer, "scenario.run",
		attribute.String(otelhelper.ScenarioIDKey, scenarioID),
		attribute.String(otelhelper.TaskIDKey, taskID),
	)
	defer span.End()

	logger := c.logger.With("task_id", taskID, "scenario_id", scenarioID)

	startedAt := time.Now().UTC()
	running := models.ExecutionStatusRunning

	// Step 1: mark the task running. If this fails nothing has happened yet
	// and the whole run aborts.
	_, err := c.tasks.Update(ctx, taskID, persistence.TaskPatch{
		Status:    &running,
		StartedAt: &startedAt,
	})
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to mark task running: %w", err)
	}

	runErr := c.runScenario(ctx, scenarioID, startedAt)

	finishedAt := time.Now().UTC()

	if runErr != nil {
		logger.ErrorContext(ctx, "Scenario run failed", "error", runErr)
		otelhelper.SetError(span, runErr)

		// Best-effort: the scenario's failed status must never mask the task
		// failure below, so a storage error here is logged and swallowed.
		failed := models.ExecutionStatusFailed

		_, scErr := c.persistence.ScenarioRepository().Update(ctx, scenarioID, persistence.ScenarioPatch{
			Status:     &failed,
			FinishedAt: &finishedAt,
		})
		if scErr != nil {
			logger.ErrorContext(ctx, "Failed to mark scenario failed", "error", scErr)
		}

		errText := runErr.Error()

		_, err = c.tasks.Update(ctx, taskID, persistence.TaskPatch{
			Status:     &failed,
			Error:      &errText,
			FinishedAt: &finishedAt,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to mark task failed: %w", err)
		}

		return &Outcome{Status: models.ExecutionStatusFailed, Error: errText}, nil
	}

	finished := models.ExecutionStatusFinished

	_, err = c.tasks.Update(ctx, taskID, persistence.TaskPatch{
		Status:     &finished,
		FinishedAt: &finishedAt,
	})
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to mark task finished: %w", err)
	}

	logger.InfoContext(ctx, "Scenario run finished", "duration", finishedAt.Sub(startedAt))

	return &Outcome{Status: models.ExecutionStatusFinished}, nil
}

// runScenario performs steps 2-4: scenario to running, re-read of the stored
// name and config, the placeholder execution, and the finished update with the
// captured result.
func (c *Coordinator) runScenario(ctx context.Context, scenarioID string, startedAt time.Time) error {
	running := models.ExecutionStatusRunning

	scenario, err := c.persistence.ScenarioRepository().Update(ctx, scenarioID, persistence.ScenarioPatch{
		Status:    &running,
		StartedAt: &startedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to mark scenario running: %w", err)
	}

	// Re-read the stored record; config is immutable after creation so this
	// reflects exactly what the client submitted.
	scenario, err = c.persistence.ScenarioRepository().GetByID(ctx, scenario.ID)
	if err != nil {
		return fmt.Errorf("failed to re-read scenario: %w", err)
	}

	if scenario == nil {
		return persistence.NewScenarioError("Run", scenarioID, persistence.ErrScenarioNotFound)
	}

	result, err := c.scenarios.RunPlaceholder(ctx, scenario.Name, scenario.Config)
	if err != nil {
		return fmt.Errorf("placeholder execution failed: %w", err)
	}

	finished := models.ExecutionStatusFinished
	finishedAt := time.Now().UTC()

	_, err = c.persistence.ScenarioRepository().Update(ctx, scenarioID, persistence.ScenarioPatch{
		Status:     &finished,
		Result:     result,
		FinishedAt: &finishedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to store scenario result: %w", err)
	}

	return nil
}
