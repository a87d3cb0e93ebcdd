// Package main provides the interesse API server.
package main

import (
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/norbye/interesse/pkg/web"
)

type API struct {
	logger   *slog.Logger
	handlers *web.APIHandlers
}

func NewAPI(logger *slog.Logger, handlers *web.APIHandlers) *API {
	return &API{
		logger:   logger,
		handlers: handlers,
	}
}

func (a *API) App() *fiber.App {
	app := fiber.New()

	// Permissive CORS; the OPTIONS preflight is answered here and never
	// reaches the workflow.
	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{fiber.MethodGet, fiber.MethodPost, fiber.MethodDelete, fiber.MethodOptions},
		AllowHeaders: []string{"Content-Type", "Authorization", "X-Api-Key"},
	}))
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("interesse API")
	})

	app.Post("/webhooks/interest", a.handlers.InterestWebhook)

	r := app.Group("/records")
	r.Get("/", a.handlers.GetRecords)
	r.Get("/:rowId", a.handlers.GetRecord)
	r.Delete("/:rowId", a.handlers.DeleteRecord)

	app.Get("/health", a.handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
