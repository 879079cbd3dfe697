package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/cannaplan/gaia-commons-council/pkg/log"
	cli "github.com/urfave/cli/v3"
)

func main() {
	command := &cli.Command{
		Name:                  "gaia-runner",
		Usage:                 "Run scenarios from the command line",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			{
				Name:    "run-scenario",
				Aliases: []string{"r"},
				Usage:   "Create a scenario and run it inline, printing the final record",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Aliases:  []string{"n"},
						Usage:    "Scenario name",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to a JSON or YAML config file",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Also write the final scenario record to this file",
					},
					&cli.BoolFlag{
						Name:  "async",
						Usage: "Accepted for compatibility; the runner always executes inline",
					},
					&cli.StringFlag{
						Name:    "database-url",
						Usage:   "Database connection URL for persistence",
						Value:   "./.gaia-runner",
						Sources: cli.EnvVars("DATABASE_URL"),
					},
					&cli.StringFlag{
						Name:    "log-level",
						Usage:   "Log level (debug, info, warn, error)",
						Value:   "warn",
						Sources: cli.EnvVars("LOG_LEVEL"),
					},
				},
				Action: func(ctx context.Context, command *cli.Command) error {
					log.Setup(command.String("log-level"))

					return runScenario(ctx, command)
				},
			},
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		payload, marshalErr := json.MarshalIndent(map[string]string{
			"error": err.Error(),
			"type":  errorType(err),
		}, "", "  ")
		if marshalErr != nil {
			fmt.Fprintln(os.Stderr, err)
		} else {
			fmt.Fprintln(os.Stderr, string(payload))
		}

		os.Exit(1)
	}
}
