// Package main provides the Flowtrack tracker node daemon.
package main

import (
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/flowtrack-io/flowtrack/pkg/failover"
	"github.com/flowtrack-io/flowtrack/pkg/registry"
	"github.com/flowtrack-io/flowtrack/pkg/reporter"
	"github.com/flowtrack-io/flowtrack/pkg/web"
)

func newApp(
	log *slog.Logger,
	instanceRegistry *registry.Registry,
	rep *reporter.Reporter,
	failoverHandler *failover.Handler,
) *fiber.App {
	handlers := web.NewAPIHandlers(log, instanceRegistry, rep, failoverHandler)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Flowtrack Tracker")
	})

	instances := app.Group("/v1/workflow/instances")
	instances.Get("/", handlers.GetInstances)
	instances.Get("/:id", handlers.GetInstance)
	instances.Put("/", handlers.RescueInstance)

	app.Post("/v1/cluster/failover", handlers.TriggerFailover)

	return app
}
