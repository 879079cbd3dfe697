// Package models defines the core domain models for scenario execution.
package models

import "time"

// ExecutionStatus represents the lifecycle state of a scenario or task.
type ExecutionStatus string

const (
	ExecutionStatusPending  ExecutionStatus = "pending"  // Created, not yet picked up
	ExecutionStatusRunning  ExecutionStatus = "running"  // Execution in progress
	ExecutionStatusFinished ExecutionStatus = "finished" // Terminal, result available
	ExecutionStatusFailed   ExecutionStatus = "failed"   // Terminal, error recorded
)

// IsTerminal reports whether the status permits no further transitions.
func (s ExecutionStatus) IsTerminal() bool {
	return s == ExecutionStatusFinished || s == ExecutionStatusFailed
}

// IsActive reports whether the status counts against the
// at-most-one-active-task-per-scenario rule.
func (s ExecutionStatus) IsActive() bool {
	return s == ExecutionStatusPending || s == ExecutionStatusRunning
}

// CanTransitionTo reports whether moving to target is a legal forward edge.
// Legal edges: pending->running, running->finished, running->failed.
func (s ExecutionStatus) CanTransitionTo(target ExecutionStatus) bool {
	switch s {
	case ExecutionStatusPending:
		return target == ExecutionStatusRunning
	case ExecutionStatusRunning:
		return target == ExecutionStatusFinished || target == ExecutionStatusFailed
	default:
		return false
	}
}

// ScenarioResult is the payload produced by a completed scenario run.
type ScenarioResult struct {
	Summary     string         `json:"summary"`
	InputConfig map[string]any `json:"input_config"`
}

// Scenario represents a unit of requested work with a name and optional
// configuration. Config is immutable after creation; Result is set only once
// the scenario reaches a terminal status.
type Scenario struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"              validate:"required"`
	Config     map[string]any  `json:"config,omitempty"`
	Status     ExecutionStatus `json:"status"`
	Result     *ScenarioResult `json:"result"`
	CreatedAt  time.Time       `json:"created_at"`
	StartedAt  *time.Time      `json:"started_at,omitempty"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
}
