// Package web provides HTTP handlers and REST API endpoints for scenario execution.
package web

import (
	"net/http"
	"time"

	"github.com/cannaplan/gaia-commons-council/pkg/eventbus"
	"github.com/cannaplan/gaia-commons-council/pkg/events"
	"github.com/cannaplan/gaia-commons-council/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	scenarioService *services.Scenario
	taskService     *services.Task
	validator       *validator.Validate
	eventBus        eventbus.EventPublisher
}

func NewAPIHandlers(
	scenarioService *services.Scenario,
	taskService *services.Task,
	validator *validator.Validate,
	eventBus eventbus.EventPublisher,
) *APIHandlers {
	return &APIHandlers{
		scenarioService: scenarioService,
		taskService:     taskService,
		validator:       validator,
		eventBus:        eventBus,
	}
}

func (h *APIHandlers) CreateScenario(c fiber.Ctx) error {
	var req CreateScenarioRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.scenarioService.Create(c.Context(), req.Name, req.Config)
	if err != nil {
		return handleServiceError(c, err)
	}

	c.Set(fiber.HeaderLocation, "/scenarios/"+created.ID)

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) GetScenario(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Scenario ID is required")
	}

	scenario, err := h.scenarioService.Get(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	if scenario == nil {
		return notFound(c, "Scenario not found")
	}

	return c.JSON(scenario)
}

// RunScenario creates one task for the scenario and dispatches it to a worker
// over the event bus. The task record is durable before the event goes out, so
// a poll for it succeeds even when the worker has not started yet.
func (h *APIHandlers) RunScenario(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Scenario ID is required")
	}

	task, err := h.taskService.Create(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	request := events.ScenarioRunRequested{
		BaseEvent: events.NewBaseEvent(events.ScenarioRunRequestedEvent, id),
		TaskID:    task.TaskID,
	}

	if err := h.eventBus.Publish(c.Context(), id, request); err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(RunScenarioResponse{
		TaskID:     task.TaskID,
		ScenarioID: task.ScenarioID,
		Status:     string(task.Status),
	})
}

func (h *APIHandlers) GetTask(c fiber.Ctx) error {
	taskID := c.Params("taskId")
	if taskID == "" {
		return badRequest(c, "Task ID is required")
	}

	task, err := h.taskService.Get(c.Context(), taskID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(task)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.scenarioService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Gaia API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Gaia API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}
