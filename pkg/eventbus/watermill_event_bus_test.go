package eventbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/cannaplan/gaia-commons-council/pkg/channels/gochannel"
	"github.com/cannaplan/gaia-commons-council/pkg/eventbus"
	"github.com/cannaplan/gaia-commons-council/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBus(t *testing.T) eventbus.EventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)

	t.Cleanup(func() {
		_ = bus.Close()
	})

	return bus
}

func TestWatermillEventBus_PublishAndHandle(t *testing.T) {
	bus := newTestBus(t)

	received := make(chan *events.ScenarioRunRequested, 1)

	err := bus.Handle(events.ScenarioRunRequestedEvent, func(_ context.Context, event any) error {
		requested, ok := event.(*events.ScenarioRunRequested)
		require.True(t, ok)

		received <- requested

		return nil
	})
	require.NoError(t, err)

	require.NoError(t, bus.Subscribe(t.Context()))

	published := events.ScenarioRunRequested{
		BaseEvent: events.NewBaseEvent(events.ScenarioRunRequestedEvent, "scenario-1"),
		TaskID:    "task-1",
	}
	require.NoError(t, bus.Publish(t.Context(), "scenario-1", published))

	select {
	case got := <-received:
		assert.Equal(t, "scenario-1", got.ScenarioID)
		assert.Equal(t, "task-1", got.TaskID)
		assert.Equal(t, events.ScenarioRunRequestedEvent, got.Type)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestWatermillEventBus_UnhandledEventTypeIsSkipped(t *testing.T) {
	bus := newTestBus(t)

	received := make(chan *events.ScenarioRunFinished, 1)

	err := bus.Handle(events.ScenarioRunFinishedEvent, func(_ context.Context, event any) error {
		finished, ok := event.(*events.ScenarioRunFinished)
		require.True(t, ok)

		received <- finished

		return nil
	})
	require.NoError(t, err)

	require.NoError(t, bus.Subscribe(t.Context()))

	// No handler registered for failed events; it should be acked and dropped.
	failed := events.ScenarioRunFailed{
		BaseEvent: events.NewBaseEvent(events.ScenarioRunFailedEvent, "scenario-1"),
		TaskID:    "task-1",
		Error:     "boom",
	}
	require.NoError(t, bus.Publish(t.Context(), "scenario-1", failed))

	finished := events.ScenarioRunFinished{
		BaseEvent: events.NewBaseEvent(events.ScenarioRunFinishedEvent, "scenario-1"),
		TaskID:    "task-1",
	}
	require.NoError(t, bus.Publish(t.Context(), "scenario-1", finished))

	select {
	case got := <-received:
		assert.Equal(t, "task-1", got.TaskID)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestWatermillEventBus_GenerateID(t *testing.T) {
	bus := newTestBus(t)

	first := bus.GenerateID()
	second := bus.GenerateID()

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}
