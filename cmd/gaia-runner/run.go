// Package main provides the inline scenario runner.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cannaplan/gaia-commons-council/pkg/cmd"
	"github.com/cannaplan/gaia-commons-council/pkg/execution"
	"github.com/cannaplan/gaia-commons-council/pkg/log"
	"github.com/cannaplan/gaia-commons-council/pkg/persistence"
	"github.com/cannaplan/gaia-commons-council/pkg/services"
	cli "github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const outputFileMode = 0o644

func runScenario(ctx context.Context, command *cli.Command) error {
	logger := log.WithModule("gaia-runner")

	config, err := loadConfigFile(command.String("config"))
	if err != nil {
		return err
	}

	if command.Bool("async") {
		logger.WarnContext(ctx, "The --async flag is accepted but the runner always executes inline")
	}

	persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))

	defer func() {
		if err := persistence.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	scenarioService := services.NewScenario(persistence)
	taskService := services.NewTask(persistence)

	scenario, err := scenarioService.Create(ctx, command.String("name"), config)
	if err != nil {
		return err
	}

	task, err := taskService.Create(ctx, scenario.ID)
	if err != nil {
		return err
	}

	coordinator := execution.NewCoordinator(persistence, logger)

	outcome, err := coordinator.Run(ctx, task.TaskID, scenario.ID)
	if err != nil {
		return err
	}

	final, err := scenarioService.Get(ctx, scenario.ID)
	if err != nil {
		return err
	}

	if final == nil {
		return fmt.Errorf("scenario %s disappeared during the run", scenario.ID)
	}

	payload, err := json.MarshalIndent(final, "", "  ")
	if err != nil {
		return err
	}

	if err := emitRecord(payload, command.String("output"), os.Stdout); err != nil {
		return err
	}

	if outcome.Error != "" {
		return fmt.Errorf("scenario run failed: %s", outcome.Error)
	}

	return nil
}

// emitRecord echoes the final scenario record to stdout and, when outputPath
// is set, additionally writes it to that file.
func emitRecord(payload []byte, outputPath string, stdout io.Writer) error {
	if outputPath != "" {
		if err := os.WriteFile(outputPath, payload, outputFileMode); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
	}

	fmt.Fprintln(stdout, string(payload))

	return nil
}

// errorType classifies err for the failure object printed on stderr,
// mirroring the categories the HTTP API maps to status codes.
func errorType(err error) string {
	switch {
	case services.IsValidationError(err):
		return "validation_error"
	case services.IsConflictError(err) || persistence.IsScenarioNotRunnable(err):
		return "conflict"
	case persistence.IsScenarioNotFound(err) || persistence.IsTaskNotFound(err):
		return "not_found"
	default:
		return "runner_error"
	}
}

// loadConfigFile parses the optional scenario config. The file extension
// selects the parser; anything other than JSON or YAML is rejected.
func loadConfigFile(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := map[string]any{}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file extension: %s", filepath.Ext(path))
	}

	return config, nil
}
