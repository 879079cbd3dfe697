package services

import (
	"testing"
	"time"

	"github.com/cannaplan/gaia-commons-council/pkg/models"
	"github.com/cannaplan/gaia-commons-council/pkg/persistence"
	"github.com/cannaplan/gaia-commons-council/pkg/persistence/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTaskService(t *testing.T) (*Task, *Scenario) {
	t.Helper()

	p := file.NewPersistence(t.TempDir())

	return NewTask(p), NewScenario(p)
}

func TestTask_Create(t *testing.T) {
	taskService, scenarioService := setupTaskService(t)

	scenario, err := scenarioService.Create(t.Context(), "demo", nil)
	require.NoError(t, err)

	task, err := taskService.Create(t.Context(), scenario.ID)
	require.NoError(t, err)
	require.NotNil(t, task)

	assert.NotEmpty(t, task.TaskID)
	assert.Equal(t, scenario.ID, task.ScenarioID)
	assert.Equal(t, models.ExecutionStatusPending, task.Status)
	assert.Nil(t, task.Error)
	assert.False(t, task.CreatedAt.IsZero())
}

func TestTask_Create_ScenarioNotFound(t *testing.T) {
	taskService, _ := setupTaskService(t)

	_, err := taskService.Create(t.Context(), "no-such-scenario")
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
	assert.False(t, IsConflictError(err))
}

func TestTask_Create_ActiveTaskConflict(t *testing.T) {
	taskService, scenarioService := setupTaskService(t)

	scenario, err := scenarioService.Create(t.Context(), "demo", nil)
	require.NoError(t, err)

	_, err = taskService.Create(t.Context(), scenario.ID)
	require.NoError(t, err)

	_, err = taskService.Create(t.Context(), scenario.ID)
	require.Error(t, err)
	assert.True(t, IsConflictError(err))
}

func TestTask_Create_TerminalScenarioConflict(t *testing.T) {
	taskService, scenarioService := setupTaskService(t)

	scenario, err := scenarioService.Create(t.Context(), "demo", nil)
	require.NoError(t, err)

	// Drive the scenario to a terminal status directly through the task
	// lifecycle so the second run attempt hits the terminal-is-final rule.
	task, err := taskService.Create(t.Context(), scenario.ID)
	require.NoError(t, err)

	finished := models.ExecutionStatusFinished
	now := time.Now().UTC()

	_, err = taskService.Update(t.Context(), task.TaskID, persistence.TaskPatch{
		Status:     &finished,
		FinishedAt: &now,
	})
	require.NoError(t, err)

	scenarioService.mustSetStatus(t, scenario.ID, models.ExecutionStatusFinished)

	_, err = taskService.Create(t.Context(), scenario.ID)
	require.Error(t, err)
	assert.True(t, IsConflictError(err))
	assert.Contains(t, err.Error(), "finished")
}

// mustSetStatus walks the scenario through legal transitions up to target.
func (s *Scenario) mustSetStatus(t *testing.T, id string, target models.ExecutionStatus) {
	t.Helper()

	now := time.Now().UTC()
	running := models.ExecutionStatusRunning

	_, err := s.persistence.ScenarioRepository().Update(t.Context(), id, persistence.ScenarioPatch{
		Status:    &running,
		StartedAt: &now,
	})
	require.NoError(t, err)

	if target == models.ExecutionStatusRunning {
		return
	}

	_, err = s.persistence.ScenarioRepository().Update(t.Context(), id, persistence.ScenarioPatch{
		Status:     &target,
		FinishedAt: &now,
	})
	require.NoError(t, err)
}

func TestTask_Get(t *testing.T) {
	taskService, scenarioService := setupTaskService(t)

	scenario, err := scenarioService.Create(t.Context(), "demo", nil)
	require.NoError(t, err)

	task, err := taskService.Create(t.Context(), scenario.ID)
	require.NoError(t, err)

	fetched, err := taskService.Get(t.Context(), task.TaskID)
	require.NoError(t, err)
	assert.Equal(t, task.TaskID, fetched.TaskID)
	assert.Equal(t, scenario.ID, fetched.ScenarioID)
}

func TestTask_Get_Missing(t *testing.T) {
	taskService, _ := setupTaskService(t)

	_, err := taskService.Get(t.Context(), "no-such-task")
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}

func TestTask_Update(t *testing.T) {
	taskService, scenarioService := setupTaskService(t)

	scenario, err := scenarioService.Create(t.Context(), "demo", nil)
	require.NoError(t, err)

	task, err := taskService.Create(t.Context(), scenario.ID)
	require.NoError(t, err)

	running := models.ExecutionStatusRunning
	startedAt := time.Now().UTC()

	updated, err := taskService.Update(t.Context(), task.TaskID, persistence.TaskPatch{
		Status:    &running,
		StartedAt: &startedAt,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusRunning, updated.Status)
	require.NotNil(t, updated.StartedAt)
}

func TestTask_Update_IllegalTransition(t *testing.T) {
	taskService, scenarioService := setupTaskService(t)

	scenario, err := scenarioService.Create(t.Context(), "demo", nil)
	require.NoError(t, err)

	task, err := taskService.Create(t.Context(), scenario.ID)
	require.NoError(t, err)

	// pending may not jump straight to a terminal state.
	finished := models.ExecutionStatusFinished
	_, err = taskService.Update(t.Context(), task.TaskID, persistence.TaskPatch{Status: &finished})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	running := models.ExecutionStatusRunning
	updated, err := taskService.Update(t.Context(), task.TaskID, persistence.TaskPatch{Status: &running})
	require.NoError(t, err)

	_, err = taskService.Update(t.Context(), updated.TaskID, persistence.TaskPatch{Status: &finished})
	require.NoError(t, err)

	// Terminal states are final.
	pending := models.ExecutionStatusPending
	_, err = taskService.Update(t.Context(), updated.TaskID, persistence.TaskPatch{Status: &pending})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestTask_Update_Missing(t *testing.T) {
	taskService, _ := setupTaskService(t)

	running := models.ExecutionStatusRunning
	_, err := taskService.Update(t.Context(), "no-such-task", persistence.TaskPatch{Status: &running})
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}

func TestTask_ValidationErrors(t *testing.T) {
	taskService, _ := setupTaskService(t)

	_, err := taskService.Create(t.Context(), "")
	assert.True(t, IsValidationError(err))

	_, err = taskService.Get(t.Context(), "")
	assert.True(t, IsValidationError(err))

	_, err = taskService.Update(t.Context(), "", persistence.TaskPatch{})
	assert.True(t, IsValidationError(err))
}
