// Package events defines event types and structures for scenario run lifecycle notifications.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic carries all scenario run events.
const Topic = "gaia.scenarios"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// ScenarioRunRequestedEvent dispatches one execution attempt to a worker.
	ScenarioRunRequestedEvent EventType = "scenario.run.requested"

	// ScenarioRunFinishedEvent reports a run that reached finished.
	ScenarioRunFinishedEvent EventType = "scenario.run.finished"

	// ScenarioRunFailedEvent reports a run that reached failed.
	ScenarioRunFailedEvent EventType = "scenario.run.failed"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	ScenarioID string         `json:"scenario_id"`
	WorkerID   string         `json:"worker_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, scenarioID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		ScenarioID: scenarioID,
		Metadata:   make(map[string]any),
	}
}

// ScenarioRunRequested is published once per created task; exactly one worker
// picks it up and drives the run to a terminal state.
type ScenarioRunRequested struct {
	BaseEvent

	TaskID string `json:"task_id"`
}

func (s ScenarioRunRequested) GetType() EventType {
	return ScenarioRunRequestedEvent
}

type ScenarioRunFinished struct {
	BaseEvent

	TaskID   string        `json:"task_id"`
	Duration time.Duration `json:"duration"`
}

func (s ScenarioRunFinished) GetType() EventType {
	return ScenarioRunFinishedEvent
}

type ScenarioRunFailed struct {
	BaseEvent

	TaskID   string        `json:"task_id"`
	Error    string        `json:"error"`
	Duration time.Duration `json:"duration"`
}

func (s ScenarioRunFailed) GetType() EventType {
	return ScenarioRunFailedEvent
}
