package postgresql_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/cannaplan/gaia-commons-council/pkg/models"
	"github.com/cannaplan/gaia-commons-council/pkg/persistence"
	"github.com/cannaplan/gaia-commons-council/pkg/persistence/postgresql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var postgresContainer *postgres.PostgresContainer

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("gaia_test"),
			postgres.WithUsername("gaia"),
			postgres.WithPassword("gaia"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	require.NoError(t, p.TaskRepository().Clear(ctx))
	require.NoError(t, p.ScenarioRepository().Clear(ctx))

	t.Cleanup(func() {
		_ = p.TaskRepository().Clear(ctx)
		_ = p.ScenarioRepository().Clear(ctx)

		err := p.Close(ctx)
		require.NoError(t, err)

		cancel()
	})

	return p, ctx
}

func pendingScenario() *models.Scenario {
	return &models.Scenario{
		ID:        uuid.New().String(),
		Name:      "integration-scenario",
		Config:    map[string]any{"param1": "test-value", "param2": float64(123)},
		Status:    models.ExecutionStatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

func TestIntegration_ScenarioLifecycle(t *testing.T) {
	p, ctx := setupTestDB(t)

	scenario := pendingScenario()
	require.NoError(t, p.ScenarioRepository().Save(ctx, scenario))

	// Duplicate insert is rejected.
	err := p.ScenarioRepository().Save(ctx, scenario)
	require.Error(t, err)
	assert.True(t, persistence.IsScenarioAlreadyExists(err))

	fetched, err := p.ScenarioRepository().GetByID(ctx, scenario.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, scenario.Name, fetched.Name)
	assert.Equal(t, scenario.Config, fetched.Config)
	assert.Nil(t, fetched.Result)

	running := models.ExecutionStatusRunning
	startedAt := time.Now().UTC()

	updated, err := p.ScenarioRepository().Update(ctx, scenario.ID, persistence.ScenarioPatch{
		Status:    &running,
		StartedAt: &startedAt,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusRunning, updated.Status)
	assert.Nil(t, updated.Result)

	finished := models.ExecutionStatusFinished
	finishedAt := time.Now().UTC()

	updated, err = p.ScenarioRepository().Update(ctx, scenario.ID, persistence.ScenarioPatch{
		Status:     &finished,
		Result:     &models.ScenarioResult{Summary: "demo result", InputConfig: scenario.Config},
		FinishedAt: &finishedAt,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusFinished, updated.Status)
	require.NotNil(t, updated.Result)
	assert.Equal(t, "demo result", updated.Result.Summary)
	assert.Equal(t, scenario.Config, updated.Result.InputConfig)
}

func TestIntegration_ScenarioGetByID_Missing(t *testing.T) {
	p, ctx := setupTestDB(t)

	fetched, err := p.ScenarioRepository().GetByID(ctx, uuid.New().String())
	require.NoError(t, err)
	assert.Nil(t, fetched)
}

func TestIntegration_TaskCheckAndInsert(t *testing.T) {
	p, ctx := setupTestDB(t)

	scenario := pendingScenario()
	require.NoError(t, p.ScenarioRepository().Save(ctx, scenario))

	task := &models.Task{
		TaskID:     uuid.New().String(),
		ScenarioID: scenario.ID,
		Status:     models.ExecutionStatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, p.TaskRepository().CreateForScenario(ctx, task))

	// Second active task against the same scenario is a conflict.
	second := &models.Task{
		TaskID:     uuid.New().String(),
		ScenarioID: scenario.ID,
		Status:     models.ExecutionStatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	err := p.TaskRepository().CreateForScenario(ctx, second)
	require.Error(t, err)
	assert.True(t, persistence.IsScenarioNotRunnable(err))

	// Unknown scenario is a not-found.
	orphan := &models.Task{
		TaskID:     uuid.New().String(),
		ScenarioID: uuid.New().String(),
		Status:     models.ExecutionStatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	err = p.TaskRepository().CreateForScenario(ctx, orphan)
	require.Error(t, err)
	assert.True(t, persistence.IsScenarioNotFound(err))
}

func TestIntegration_TaskUpdateAndGet(t *testing.T) {
	p, ctx := setupTestDB(t)

	scenario := pendingScenario()
	require.NoError(t, p.ScenarioRepository().Save(ctx, scenario))

	task := &models.Task{
		TaskID:     uuid.New().String(),
		ScenarioID: scenario.ID,
		Status:     models.ExecutionStatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, p.TaskRepository().CreateForScenario(ctx, task))

	failed := models.ExecutionStatusFailed
	errText := "scenario not found mid-run"
	finishedAt := time.Now().UTC()

	updated, err := p.TaskRepository().Update(ctx, task.TaskID, persistence.TaskPatch{
		Status:     &failed,
		Error:      &errText,
		FinishedAt: &finishedAt,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusFailed, updated.Status)
	require.NotNil(t, updated.Error)
	assert.Equal(t, errText, *updated.Error)

	fetched, err := p.TaskRepository().GetByID(ctx, task.TaskID)
	require.NoError(t, err)
	assert.Equal(t, updated, fetched)

	_, err = p.TaskRepository().GetByID(ctx, uuid.New().String())
	require.Error(t, err)
	assert.True(t, persistence.IsTaskNotFound(err))
}
