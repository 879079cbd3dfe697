package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cannaplan/gaia-commons-council/pkg/models"
	"github.com/cannaplan/gaia-commons-council/pkg/persistence"
	goredis "github.com/redis/go-redis/v9"
)

// ScenarioRepository handles scenario-related Redis operations.
type ScenarioRepository struct {
	client *goredis.Client
}

// Save stores a new scenario, rejecting duplicate identifiers via SETNX.
func (sr *ScenarioRepository) Save(ctx context.Context, scenario *models.Scenario) error {
	data, err := json.Marshal(scenario)
	if err != nil {
		return fmt.Errorf("failed to marshal scenario %s: %w", scenario.ID, err)
	}

	inserted, err := sr.client.SetNX(ctx, scenarioKeyPrefix+scenario.ID, data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to store scenario %s: %w", scenario.ID, err)
	}

	if !inserted {
		return persistence.NewScenarioError("Save", scenario.ID, persistence.ErrScenarioAlreadyExists)
	}

	return nil
}

// GetByID returns a scenario by its ID, or (nil, nil) when it does not exist.
func (sr *ScenarioRepository) GetByID(ctx context.Context, id string) (*models.Scenario, error) {
	return sr.get(ctx, sr.client, id)
}

// Update applies a partial patch via an optimistic WATCH transaction on the
// scenario key.
func (sr *ScenarioRepository) Update(ctx context.Context, id string, patch persistence.ScenarioPatch) (*models.Scenario, error) {
	var updated *models.Scenario

	key := scenarioKeyPrefix + id

	txn := func(tx *goredis.Tx) error {
		scenario, err := sr.get(ctx, tx, id)
		if err != nil {
			return err
		}

		if scenario == nil {
			return persistence.NewScenarioError("Update", id, persistence.ErrScenarioNotFound)
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

		data, err := json.Marshal(scenario)
		if err != nil {
			return fmt.Errorf("failed to marshal scenario %s: %w", id, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)

			return nil
		})
		if err != nil {
			return err
		}

		updated = scenario

		return nil
	}

	for range txRetries {
		err := sr.client.Watch(ctx, txn, key)
		if err == nil {
			return updated, nil
		}

		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}

		return nil, err
	}

	return nil, fmt.Errorf("failed to update scenario %s: too many concurrent modifications", id)
}

// Clear removes every scenario record and task index.
func (sr *ScenarioRepository) Clear(ctx context.Context) error {
	err := clearByPattern(ctx, sr.client, scenarioKeyPrefix+"*")
	if err != nil {
		return err
	}

	return clearByPattern(ctx, sr.client, scenarioTasksKeyPrefix+"*")
}

func (sr *ScenarioRepository) get(ctx context.Context, c goredis.Cmdable, id string) (*models.Scenario, error) {
	body, err := c.Get(ctx, scenarioKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to fetch scenario %s: %w", id, err)
	}

	var scenario models.Scenario

	err = json.Unmarshal(body, &scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal scenario %s: %w", id, err)
	}

	return &scenario, nil
}
