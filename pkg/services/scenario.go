package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cannaplan/gaia-commons-council/pkg/models"
	"github.com/cannaplan/gaia-commons-council/pkg/persistence"
	"github.com/google/uuid"
)

// placeholderDelay is the fixed duration the placeholder execution blocks for,
// standing in for real computation.
const placeholderDelay = 100 * time.Millisecond

// placeholderSummary is the static summary attached to every placeholder result.
const placeholderSummary = "demo result"

// Scenario owns the scenario entity lifecycle and the placeholder execution step.
type Scenario struct {
	persistence persistence.Persistence
}

// NewScenario creates a new scenario service.
func NewScenario(persistence persistence.Persistence) *Scenario {
	return &Scenario{
		persistence: persistence,
	}
}

// HealthCheck checks the health of the persistence layer.
func (s *Scenario) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := s.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// Create validates and stores a new pending scenario and returns the full record.
func (s *Scenario) Create(ctx context.Context, name string, config map[string]any) (*models.Scenario, error) {
	if strings.TrimSpace(name) == "" {
		return nil, NewValidationError(
			"CreateScenario",
			"EMPTY_SCENARIO_NAME",
			"scenario name must not be empty",
			ErrEmptyScenarioName,
		)
	}

	scenario := &models.Scenario{
		ID:        uuid.New().String(),
		Name:      name,
		Config:    config,
		Status:    models.ExecutionStatusPending,
		CreatedAt: time.Now().UTC(),
	}

	err := s.persistence.ScenarioRepository().Save(ctx, scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to create scenario: %w", err)
	}

	return scenario, nil
}

// Get retrieves a scenario by its ID. A missing scenario yields (nil, nil) so
// callers can map absence directly to a not-found outcome.
func (s *Scenario) Get(ctx context.Context, id string) (*models.Scenario, error) {
	if id == "" {
		return nil, NewValidationError("GetScenario", "EMPTY_SCENARIO_ID", "scenario ID is required", ErrEmptyScenarioID)
	}

	return s.persistence.ScenarioRepository().GetByID(ctx, id)
}

// RunPlaceholder performs the placeholder execution: a fixed short delay
// simulating work, then a deterministic payload echoing the input config. It
// never fails on its own; a cancelled context is the only way out early.
func (s *Scenario) RunPlaceholder(ctx context.Context, _ string, config map[string]any) (*models.ScenarioResult, error) {
	select {
	case <-time.After(placeholderDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	inputConfig := config
	if inputConfig == nil {
		inputConfig = map[string]any{}
	}

	return &models.ScenarioResult{
		Summary:     placeholderSummary,
		InputConfig: inputConfig,
	}, nil
}
