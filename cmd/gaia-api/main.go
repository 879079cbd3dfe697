package main

import (
	"context"
	"os"

	"github.com/cannaplan/gaia-commons-council/pkg/cmd"
	"github.com/cannaplan/gaia-commons-council/pkg/execution"
	"github.com/cannaplan/gaia-commons-council/pkg/log"
	"github.com/cannaplan/gaia-commons-council/pkg/otelhelper"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "gaia-api",
		Usage:                 "Submit and run scenarios",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (memory, kafka)",
				Value:   "memory",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "worker-id",
				Usage:   "Identifier for the in-process worker (memory bus only)",
				Value:   "api-worker",
				Sources: cli.EnvVars("WORKER_ID"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Gaia API")

			if _, err := otelhelper.NewTracer(ctx, "gaia-api"); err != nil {
				logger.WarnContext(ctx, "Tracing disabled", "error", err)
			}

			defer func() {
				if err := otelhelper.Shutdown(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to shut down tracing", "error", err)
				}
			}()

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))

			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			// The memory bus never leaves this process, so runs are consumed
			// by an in-process dispatcher. With kafka the gaia-worker binary
			// consumes instead.
			if command.String("event-bus") != "kafka" {
				dispatcher := execution.NewDispatcher(command.String("worker-id"), persistence, eventBus, logger)
				if err := dispatcher.Start(ctx); err != nil {
					return err
				}
			}

			api := NewAPI(
				logger,
				persistence,
				eventBus,
			)

			err := api.Start(command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
