package models

import "time"

// Task represents one asynchronous execution attempt of a scenario. A task
// observes the scenario it references, it does not own it; at most one task
// per scenario may be active (pending or running) at any time, and a scenario
// in a terminal state accepts no further tasks.
type Task struct {
	TaskID     string          `json:"task_id"`
	ScenarioID string          `json:"scenario_id"`
	Status     ExecutionStatus `json:"status"`
	Error      *string         `json:"error"`
	CreatedAt  time.Time       `json:"created_at"`
	StartedAt  *time.Time      `json:"started_at,omitempty"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
}
