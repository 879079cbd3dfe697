package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sync"

	"github.com/cannaplan/gaia-commons-council/pkg/models"
	"github.com/cannaplan/gaia-commons-council/pkg/persistence"
)

// ScenarioRepository handles scenario-related file operations.
type ScenarioRepository struct {
	root string
	mu   *sync.Mutex
}

func (sr *ScenarioRepository) dir() string {
	return path.Join(sr.root, "scenarios")
}

// Save stores a new scenario on the file system.
func (sr *ScenarioRepository) Save(_ context.Context, scenario *models.Scenario) error {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	if err := os.MkdirAll(sr.dir(), 0750); err != nil {
		return fmt.Errorf("failed to create scenarios directory: %w", err)
	}

	filePath := path.Join(sr.dir(), scenario.ID+".json")
	if _, err := os.Stat(filePath); err == nil {
		return persistence.NewScenarioError("Save", scenario.ID, persistence.ErrScenarioAlreadyExists)
	}

	return sr.write(scenario)
}

// GetByID retrieves a scenario by its ID from the file system. A missing
// scenario yields (nil, nil).
func (sr *ScenarioRepository) GetByID(_ context.Context, scenarioID string) (*models.Scenario, error) {
	return sr.read(scenarioID)
}

// Update applies a partial patch to a stored scenario. The read-modify-write
// runs under the store mutex so concurrent writers never observe a
// half-applied patch.
func (sr *ScenarioRepository) Update(_ context.Context, scenarioID string, patch persistence.ScenarioPatch) (*models.Scenario, error) {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	scenario, err := sr.read(scenarioID)
	if err != nil {
		return nil, err
	}

	if scenario == nil {
		return nil, persistence.NewScenarioError("Update", scenarioID, persistence.ErrScenarioNotFound)
	}

	if patch.Status != nil {
		scenario.Status = *patch.Status
	}

	if patch.Result != nil {
		scenario.Result = patch.Result
	}

	if patch.StartedAt != nil {
		scenario.StartedAt = patch.StartedAt
	}

	if patch.FinishedAt != nil {
		scenario.FinishedAt = patch.FinishedAt
	}

	if err := sr.write(scenario); err != nil {
		return nil, err
	}

	return scenario, nil
}

// Clear removes every scenario record.
func (sr *ScenarioRepository) Clear(_ context.Context) error {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	err := os.RemoveAll(sr.dir())
	if err != nil {
		return fmt.Errorf("failed to clear scenarios: %w", err)
	}

	return nil
}

func (sr *ScenarioRepository) read(scenarioID string) (*models.Scenario, error) {
	filePath := filepath.Clean(path.Join(sr.dir(), scenarioID+".json"))

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to fetch scenario %s: %w", scenarioID, err)
	}

	var scenario models.Scenario

	err = json.Unmarshal(body, &scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal scenario %s: %w", scenarioID, err)
	}

	return &scenario, nil
}

func (sr *ScenarioRepository) write(scenario *models.Scenario) error {
	if err := os.MkdirAll(sr.dir(), 0750); err != nil {
		return fmt.Errorf("failed to create scenarios directory: %w", err)
	}

	data, err := json.MarshalIndent(scenario, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal scenario %s: %w", scenario.ID, err)
	}

	filePath := path.Join(sr.dir(), scenario.ID+".json")

	return os.WriteFile(filePath, data, 0600)
}
