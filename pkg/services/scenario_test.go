package services

import (
	"testing"
	"time"

	"github.com/cannaplan/gaia-commons-council/pkg/models"
	"github.com/cannaplan/gaia-commons-council/pkg/persistence/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScenario(t *testing.T) {
	persistence := file.NewPersistence(t.TempDir())
	service := NewScenario(persistence)

	assert.NotNil(t, service)
	assert.Equal(t, persistence, service.persistence)
}

func TestScenario_Create(t *testing.T) {
	persistence := file.NewPersistence(t.TempDir())
	service := NewScenario(persistence)

	created, err := service.Create(t.Context(), "demo", map[string]any{"a": float64(1)})
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "demo", created.Name)
	assert.Equal(t, map[string]any{"a": float64(1)}, created.Config)
	assert.Equal(t, models.ExecutionStatusPending, created.Status)
	assert.Nil(t, created.Result)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Nil(t, created.StartedAt)
	assert.Nil(t, created.FinishedAt)
}

func TestScenario_Create_WithoutConfig(t *testing.T) {
	persistence := file.NewPersistence(t.TempDir())
	service := NewScenario(persistence)

	created, err := service.Create(t.Context(), "demo", nil)
	require.NoError(t, err)
	assert.Nil(t, created.Config)
	assert.Equal(t, models.ExecutionStatusPending, created.Status)
}

func TestScenario_Create_EmptyName(t *testing.T) {
	persistence := file.NewPersistence(t.TempDir())
	service := NewScenario(persistence)

	tests := []struct {
		name   string
		config map[string]any
	}{
		{"no config", nil},
		{"empty config", map[string]any{}},
		{"populated config", map[string]any{"a": float64(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Create(t.Context(), "", tt.config)
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestScenario_Create_WhitespaceName(t *testing.T) {
	persistence := file.NewPersistence(t.TempDir())
	service := NewScenario(persistence)

	_, err := service.Create(t.Context(), "   ", nil)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestScenario_Get(t *testing.T) {
	persistence := file.NewPersistence(t.TempDir())
	service := NewScenario(persistence)

	created, err := service.Create(t.Context(), "demo", map[string]any{"key": "value"})
	require.NoError(t, err)

	fetched, err := service.Get(t.Context(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)

	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "demo", fetched.Name)
	assert.Equal(t, map[string]any{"key": "value"}, fetched.Config)

	// Repeated reads return identical data.
	again, err := service.Get(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, fetched, again)
}

func TestScenario_Get_Missing(t *testing.T) {
	persistence := file.NewPersistence(t.TempDir())
	service := NewScenario(persistence)

	fetched, err := service.Get(t.Context(), "no-such-scenario")
	require.NoError(t, err)
	assert.Nil(t, fetched)
}

func TestScenario_RunPlaceholder(t *testing.T) {
	persistence := file.NewPersistence(t.TempDir())
	service := NewScenario(persistence)

	start := time.Now()

	result, err := service.RunPlaceholder(t.Context(), "demo", map[string]any{"a": float64(1)})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), placeholderDelay)
	assert.Equal(t, "demo result", result.Summary)
	assert.Equal(t, map[string]any{"a": float64(1)}, result.InputConfig)
}

func TestScenario_RunPlaceholder_NilConfig(t *testing.T) {
	persistence := file.NewPersistence(t.TempDir())
	service := NewScenario(persistence)

	result, err := service.RunPlaceholder(t.Context(), "demo", nil)
	require.NoError(t, err)

	// A missing config is echoed back as an empty document, not null.
	assert.NotNil(t, result.InputConfig)
	assert.Empty(t, result.InputConfig)
}

func TestScenario_HealthCheck(t *testing.T) {
	persistence := file.NewPersistence(t.TempDir())
	service := NewScenario(persistence)

	message, healthy := service.HealthCheck(t.Context())
	assert.True(t, healthy)
	assert.NotEmpty(t, message)
}
