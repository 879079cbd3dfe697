package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/cannaplan/gaia-commons-council/pkg/channels/gochannel"
	"github.com/cannaplan/gaia-commons-council/pkg/channels/kafka"
	"github.com/cannaplan/gaia-commons-council/pkg/eventbus"
)

// NewEventBus creates the run dispatch bus. The "memory" provider wires an
// in-process channel, which keeps run dispatch inside the API binary; "kafka"
// dispatches across processes to dedicated workers.
func NewEventBus(provider string, logger *slog.Logger) eventbus.EventBus {
	switch provider {
	case "kafka":
		pub, sub, err := kafka.CreateChannel(watermill.NewSlogLogger(logger), "gaia")
		if err != nil {
			panic(fmt.Errorf("failed to create Kafka pub/sub: %w", err))
		}

		return eventbus.NewWatermillEventBus(pub, sub)
	case "memory", "gochannel", "":
		pub, sub, err := gochannel.CreateChannel(watermill.NewSlogLogger(logger))
		if err != nil {
			panic(fmt.Errorf("failed to create in-memory pub/sub: %w", err))
		}

		return eventbus.NewWatermillEventBus(pub, sub)
	default:
		panic("Unsupported event bus provider: " + provider)
	}
}
