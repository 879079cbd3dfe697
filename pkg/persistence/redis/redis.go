// Package redis provides Redis-backed persistence implementation for scenarios and tasks.
package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cannaplan/gaia-commons-council/pkg/persistence"
	goredis "github.com/redis/go-redis/v9"
)

const (
	scenarioKeyPrefix = "gaia:scenario:"
	taskKeyPrefix     = "gaia:task:"

	// scenarioTasksKeyPrefix indexes task ids per scenario; watched together
	// with the scenario key during check-and-insert.
	scenarioTasksKeyPrefix = "gaia:scenario-tasks:"

	// txRetries bounds optimistic WATCH/MULTI retries before giving up.
	txRetries = 5
)

// Persistence implements the persistence layer on top of Redis. Records are
// stored as JSON strings; the task check-and-insert uses an optimistic
// WATCH/MULTI transaction over the scenario key and its task index.
type Persistence struct {
	client       *goredis.Client
	logger       *slog.Logger
	scenarioRepo *ScenarioRepository
	taskRepo     *TaskRepository
}

// NewPersistence creates a new Redis persistence layer from a redis:// URL.
func NewPersistence(ctx context.Context, logger *slog.Logger, redisURL string) (*Persistence, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := goredis.NewClient(opts)

	err = client.Ping(ctx).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	p := &Persistence{client: client, logger: logger}
	p.scenarioRepo = &ScenarioRepository{client: client}
	p.taskRepo = &TaskRepository{client: client, scenarios: p.scenarioRepo}

	return p, nil
}

// Close closes the Redis connection.
func (p *Persistence) Close(_ context.Context) error {
	err := p.client.Close()
	if err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}

	return nil
}

// HealthCheck verifies the Redis connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

// ScenarioRepository returns the scenario repository backed by Redis.
func (p *Persistence) ScenarioRepository() persistence.ScenarioRepository {
	return p.scenarioRepo
}

// TaskRepository returns the task repository backed by Redis.
func (p *Persistence) TaskRepository() persistence.TaskRepository {
	return p.taskRepo
}

func clearByPattern(ctx context.Context, client *goredis.Client, pattern string) error {
	iter := client.Scan(ctx, 0, pattern, 0).Iterator()

	for iter.Next(ctx) {
		err := client.Del(ctx, iter.Val()).Err()
		if err != nil {
			return fmt.Errorf("failed to delete key %s: %w", iter.Val(), err)
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan keys for pattern %s: %w", pattern, err)
	}

	return nil
}
