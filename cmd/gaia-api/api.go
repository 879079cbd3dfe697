// Package main provides the Gaia API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/cannaplan/gaia-commons-council/pkg/eventbus"
	"github.com/cannaplan/gaia-commons-council/pkg/persistence"
	"github.com/cannaplan/gaia-commons-council/pkg/services"
	"github.com/cannaplan/gaia-commons-council/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		persistence: persistence,
		logger:      logger,
		eventBus:    eventBus,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	scenarioService := services.NewScenario(a.persistence)
	taskService := services.NewTask(a.persistence)

	handlers := web.NewAPIHandlers(scenarioService, taskService, a.validate, a.eventBus)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Gaia API")
	})

	s := app.Group("/scenarios")
	s.Post("/", handlers.CreateScenario)
	s.Get("/tasks/:taskId", handlers.GetTask)
	s.Get("/:id", handlers.GetScenario)
	s.Post("/:id/run", handlers.RunScenario)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
