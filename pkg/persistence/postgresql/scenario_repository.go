package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cannaplan/gaia-commons-council/pkg/models"
	"github.com/cannaplan/gaia-commons-council/pkg/persistence"
	"github.com/lib/pq"
)

const uniqueViolationCode = "23505"

// ScenarioRepository handles scenario-related database operations.
type ScenarioRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewScenarioRepository creates a new scenario repository.
func NewScenarioRepository(db *sql.DB, logger *slog.Logger) *ScenarioRepository {
	return &ScenarioRepository{db: db, logger: logger}
}

// Save inserts a new scenario record.
func (r *ScenarioRepository) Save(ctx context.Context, scenario *models.Scenario) error {
	configJSON, err := marshalJSONColumn(scenario.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal scenario config: %w", err)
	}

	resultJSON, err := marshalJSONColumn(scenario.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal scenario result: %w", err)
	}

	query := `
		INSERT INTO scenarios (id, name, config, status, result, created_at, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = r.db.ExecContext(ctx, query,
		scenario.ID,
		scenario.Name,
		configJSON,
		string(scenario.Status),
		resultJSON,
		scenario.CreatedAt,
		scenario.StartedAt,
		scenario.FinishedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolationCode {
			return persistence.NewScenarioError("Save", scenario.ID, persistence.ErrScenarioAlreadyExists)
		}

		return fmt.Errorf("failed to insert scenario %s: %w", scenario.ID, err)
	}

	return nil
}

// GetByID returns a scenario by its ID, or (nil, nil) when it does not exist.
func (r *ScenarioRepository) GetByID(ctx context.Context, id string) (*models.Scenario, error) {
	query := `
		SELECT
			id
		  , name
		  , config
		  , status
		  , result
		  , created_at
		  , started_at
		  , finished_at
		FROM scenarios
		WHERE id = $1
	`

	scenario, err := scanScenario(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to query scenario %s: %w", id, err)
	}

	return scenario, nil
}

// Update applies a partial patch in a single UPDATE statement and returns the
// updated record.
func (r *ScenarioRepository) Update(ctx context.Context, id string, patch persistence.ScenarioPatch) (*models.Scenario, error) {
	resultJSON, err := marshalJSONColumn(patch.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scenario result: %w", err)
	}

	var status *string
	if patch.Status != nil {
		s := string(*patch.Status)
		status = &s
	}

	query := `
		UPDATE scenarios SET
			status = COALESCE($2, status)
		  , result = COALESCE($3, result)
		  , started_at = COALESCE($4, started_at)
		  , finished_at = COALESCE($5, finished_at)
		WHERE id = $1
		RETURNING id, name, config, status, result, created_at, started_at, finished_at
	`

	scenario, err := scanScenario(r.db.QueryRowContext(ctx, query, id, status, resultJSON, patch.StartedAt, patch.FinishedAt))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewScenarioError("Update", id, persistence.ErrScenarioNotFound)
		}

		return nil, fmt.Errorf("failed to update scenario %s: %w", id, err)
	}

	return scenario, nil
}

// Clear removes every scenario record.
func (r *ScenarioRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM scenarios")
	if err != nil {
		return fmt.Errorf("failed to clear scenarios: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScenario(row rowScanner) (*models.Scenario, error) {
	var (
		scenario   models.Scenario
		status     string
		configJSON []byte
		resultJSON []byte
		startedAt  sql.NullTime
		finishedAt sql.NullTime
	)

	err := row.Scan(
		&scenario.ID,
		&scenario.Name,
		&configJSON,
		&status,
		&resultJSON,
		&scenario.CreatedAt,
		&startedAt,
		&finishedAt,
	)
	if err != nil {
		return nil, err
	}

	scenario.Status = models.ExecutionStatus(status)

	if configJSON != nil {
		err = json.Unmarshal(configJSON, &scenario.Config)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal scenario config: %w", err)
		}
	}

	if resultJSON != nil {
		err = json.Unmarshal(resultJSON, &scenario.Result)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal scenario result: %w", err)
		}
	}

	if startedAt.Valid {
		scenario.StartedAt = &startedAt.Time
	}

	if finishedAt.Valid {
		scenario.FinishedAt = &finishedAt.Time
	}

	return &scenario, nil
}

// marshalJSONColumn converts a value to a JSONB column payload, keeping SQL
// NULL for nil values so COALESCE-based patches leave the column untouched.
func marshalJSONColumn(value any) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		if v == nil {
			return nil, nil
		}
	case *models.ScenarioResult:
		if v == nil {
			return nil, nil
		}
	}

	return json.Marshal(value)
}
