package execution

import (
	"context"
	"log/slog"
	"time"

	"github.com/cannaplan/gaia-commons-council/pkg/eventbus"
	"github.com/cannaplan/gaia-commons-council/pkg/events"
	"github.com/cannaplan/gaia-commons-council/pkg/models"
	"github.com/cannaplan/gaia-commons-council/pkg/persistence"
)

// Dispatcher consumes scenario run requests from the event bus and hands each
// one to the coordinator. Every request is handled at most once: handler
// errors are logged and acknowledged, never redelivered, since the task record
// already carries the outcome for pollers.
type Dispatcher struct {
	workerID    string
	coordinator *Coordinator
	eventBus    eventbus.EventBus
	logger      *slog.Logger
}

// NewDispatcher creates a dispatcher identified by workerID.
func NewDispatcher(workerID string, p persistence.Persistence, bus eventbus.EventBus, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		workerID:    workerID,
		coordinator: NewCoordinator(p, logger),
		eventBus:    bus,
		logger:      logger.With("module", "dispatcher", "worker_id", workerID),
	}
}

// Start registers the run-requested handler and begins consuming. It returns
// once the subscription is established; consumption stops when ctx is
// cancelled.
func (d *Dispatcher) Start(ctx context.Context) error {
	err := d.eventBus.Handle(events.ScenarioRunRequestedEvent, d.handleRunRequested)
	if err != nil {
		return err
	}

	return d.eventBus.Subscribe(ctx)
}

func (d *Dispatcher) handleRunRequested(ctx context.Context, event any) error {
	request, ok := event.(*events.ScenarioRunRequested)
	if !ok {
		d.logger.WarnContext(ctx, "Dropping event with unexpected payload type")

		return nil
	}

	logger := d.logger.With("task_id", request.TaskID, "scenario_id", request.ScenarioID)
	logger.InfoContext(ctx, "Dispatching scenario run")

	startedAt := time.Now().UTC()

	outcome, err := d.coordinator.Run(ctx, request.TaskID, request.ScenarioID)
	if err != nil {
		logger.ErrorContext(ctx, "Scenario run could not be recorded", "error", err)

		return nil
	}

	duration := time.Since(startedAt)

	var terminal eventbus.Event

	switch outcome.Status {
	case models.ExecutionStatusFinished:
		finished := events.ScenarioRunFinished{
			BaseEvent: events.NewBaseEvent(events.ScenarioRunFinishedEvent, request.ScenarioID),
			TaskID:    request.TaskID,
			Duration:  duration,
		}
		finished.WorkerID = d.workerID
		terminal = finished
	case models.ExecutionStatusFailed:
		failed := events.ScenarioRunFailed{
			BaseEvent: events.NewBaseEvent(events.ScenarioRunFailedEvent, request.ScenarioID),
			TaskID:    request.TaskID,
			Error:     outcome.Error,
			Duration:  duration,
		}
		failed.WorkerID = d.workerID
		terminal = failed
	default:
		return nil
	}

	if err := d.eventBus.Publish(ctx, request.ScenarioID, terminal); err != nil {
		logger.ErrorContext(ctx, "Failed to publish terminal event", "error", err)
	}

	return nil
}
