// Package web provides HTTP request and response types for the scenario API.
package web

// CreateScenarioRequest represents the request body for submitting a new scenario.
type CreateScenarioRequest struct {
	Name   string         `json:"name"   validate:"required"`
	Config map[string]any `json:"config"`
}

// RunScenarioResponse acknowledges an accepted run request. The task record
// referenced by TaskID carries the execution outcome once a worker picks the
// run up.
type RunScenarioResponse struct {
	TaskID     string `json:"task_id"`
	ScenarioID string `json:"scenario_id"`
	Status     string `json:"status"`
}
