package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cannaplan/gaia-commons-council/pkg/persistence"
	"github.com/cannaplan/gaia-commons-council/pkg/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		fileName string
		content  string
		expected map[string]any
		wantErr  bool
	}{
		{
			name:     "json config",
			fileName: "config.json",
			content:  `{"depth": 3, "label": "demo"}`,
			expected: map[string]any{"depth": float64(3), "label": "demo"},
		},
		{
			name:     "yaml config",
			fileName: "config.yaml",
			content:  "depth: 3\nlabel: demo\n",
			expected: map[string]any{"depth": 3, "label": "demo"},
		},
		{
			name:     "yml extension",
			fileName: "config.yml",
			content:  "enabled: true\n",
			expected: map[string]any{"enabled": true},
		},
		{
			name:     "unsupported extension",
			fileName: "config.toml",
			content:  "depth = 3",
			wantErr:  true,
		},
		{
			name:     "malformed json",
			fileName: "config.json",
			content:  `{"depth":`,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := writeConfigFile(t, tt.fileName, tt.content)

			config, err := loadConfigFile(path)
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, config)
		})
	}
}

func TestLoadConfigFile_Empty(t *testing.T) {
	t.Parallel()

	config, err := loadConfigFile("")
	require.NoError(t, err)
	assert.Nil(t, config)
}

func TestLoadConfigFile_Missing(t *testing.T) {
	t.Parallel()

	_, err := loadConfigFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestEmitRecord(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"id":"scenario-1"}`)

	t.Run("stdout only", func(t *testing.T) {
		t.Parallel()

		var stdout bytes.Buffer

		require.NoError(t, emitRecord(payload, "", &stdout))
		assert.Equal(t, string(payload)+"\n", stdout.String())
	})

	t.Run("output file keeps the stdout echo", func(t *testing.T) {
		t.Parallel()

		var stdout bytes.Buffer

		outputPath := filepath.Join(t.TempDir(), "record.json")
		require.NoError(t, emitRecord(payload, outputPath, &stdout))

		written, err := os.ReadFile(outputPath)
		require.NoError(t, err)
		assert.Equal(t, payload, written)
		assert.Equal(t, string(payload)+"\n", stdout.String())
	})

	t.Run("unwritable output file", func(t *testing.T) {
		t.Parallel()

		var stdout bytes.Buffer

		err := emitRecord(payload, filepath.Join(t.TempDir(), "missing", "record.json"), &stdout)
		require.Error(t, err)
	})
}

func TestErrorType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "validation",
			err:  services.NewValidationError("CreateScenario", "EMPTY_NAME", "scenario name is required", services.ErrEmptyScenarioName),
			want: "validation_error",
		},
		{
			name: "scenario not runnable",
			err:  persistence.ErrScenarioNotRunnable,
			want: "conflict",
		},
		{
			name: "scenario missing",
			err:  persistence.ErrScenarioNotFound,
			want: "not_found",
		},
		{
			name: "task missing",
			err:  persistence.ErrTaskNotFound,
			want: "not_found",
		},
		{
			name: "anything else",
			err:  errors.New("boom"),
			want: "runner_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, errorType(tt.err))
		})
	}
}
