package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cannaplan/gaia-commons-council/pkg/eventbus"
	"github.com/cannaplan/gaia-commons-council/pkg/execution"
	"github.com/cannaplan/gaia-commons-council/pkg/persistence"
)

type WorkerManager struct {
	id          string
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	dispatcher  *execution.Dispatcher
}

func NewWorkerManager(
	id string,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	logger *slog.Logger,
) *WorkerManager {
	return &WorkerManager{
		id:          id,
		logger:      logger.With("module", "gaia-worker", "worker_id", id),
		persistence: persistence,
		eventBus:    eventBus,
		dispatcher:  execution.NewDispatcher(id, persistence, eventBus, logger),
	}
}

// Start subscribes the dispatcher to the event bus and blocks until the
// process receives SIGINT or SIGTERM.
func (w *WorkerManager) Start(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting worker manager", "worker_id", w.id)

	err := w.dispatcher.Start(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	w.logger.InfoContext(ctx, "Worker started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	w.logger.InfoContext(ctx, "Shutting down worker...")

	return nil
}
