// Package file provides file-based persistence implementation for scenarios and tasks.
package file

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/cannaplan/gaia-commons-council/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the file system.
// A single process-wide mutex serializes writes so that patches and the task
// check-and-insert are atomic; this backend is single-process by nature.
type Persistence struct {
	root         string
	mu           sync.Mutex
	scenarioRepo *ScenarioRepository
	taskRepo     *TaskRepository
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	p := &Persistence{root: cleanRoot}
	p.scenarioRepo = &ScenarioRepository{root: cleanRoot, mu: &p.mu}
	p.taskRepo = &TaskRepository{root: cleanRoot, mu: &p.mu, scenarios: p.scenarioRepo}

	return p
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// ScenarioRepository returns the scenario repository implementation for file persistence.
func (fp *Persistence) ScenarioRepository() persistence.ScenarioRepository {
	return fp.scenarioRepo
}

// TaskRepository returns the task repository implementation for file persistence.
func (fp *Persistence) TaskRepository() persistence.TaskRepository {
	return fp.taskRepo
}
