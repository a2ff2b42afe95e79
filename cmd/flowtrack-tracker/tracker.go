package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/robfig/cron/v3"

	"github.com/flowtrack-io/flowtrack/pkg/eventbus"
	"github.com/flowtrack-io/flowtrack/pkg/failover"
	"github.com/flowtrack-io/flowtrack/pkg/otelhelper"
	"github.com/flowtrack-io/flowtrack/pkg/registry"
	"github.com/flowtrack-io/flowtrack/pkg/reporter"
)

type TrackerOptions struct {
	Port          int
	SweepSchedule string
	Tracing       bool
}

// TrackerManager wires the reporter, the failover handler and the HTTP
// surface into one long-running process.
type TrackerManager struct {
	id              string
	logger          *slog.Logger
	eventBus        eventbus.EventBus
	registry        *registry.Registry
	reporter        *reporter.Reporter
	failoverHandler *failover.Handler
	options         TrackerOptions
}

func NewTrackerManager(
	id string,
	logger *slog.Logger,
	eventBus eventbus.EventBus,
	instanceRegistry *registry.Registry,
	rep *reporter.Reporter,
	failoverHandler *failover.Handler,
	options TrackerOptions,
) *TrackerManager {
	return &TrackerManager{
		id:              id,
		logger:          logger,
		eventBus:        eventBus,
		registry:        instanceRegistry,
		reporter:        rep,
		failoverHandler: failoverHandler,
		options:         options,
	}
}

func (t *TrackerManager) Start(ctx context.Context) error {
	t.logger.InfoContext(ctx, "Starting tracker manager")

	if t.options.Tracing {
		tracer, err := otelhelper.NewTracer(ctx, "flowtrack-tracker")
		if err != nil {
			return err
		}

		if bus, ok := t.eventBus.(*eventbus.WatermillEventBus); ok {
			bus.SetTracer(tracer)
		}
	}

	err := t.reporter.RegisterHandlers(t.eventBus)
	if err != nil {
		return err
	}

	err = t.eventBus.Subscribe(ctx)
	if err != nil {
		t.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	runner := cron.New()
	if t.options.SweepSchedule != "" {
		_, err = t.failoverHandler.Schedule(ctx, runner, t.options.SweepSchedule)
		if err != nil {
			return err
		}

		runner.Start()
	}

	app := newApp(t.logger, t.registry, t.reporter, t.failoverHandler)

	go func() {
		err := app.Listen(":" + strconv.Itoa(t.options.Port))
		if err != nil {
			t.logger.ErrorContext(ctx, "HTTP server stopped", "error", err)
		}
	}()

	t.logger.InfoContext(ctx, "Tracker started successfully",
		"port", t.options.Port,
		"tracked_instances", t.registry.Len())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	t.logger.InfoContext(ctx, "Shutting down tracker...")

	err = app.Shutdown()
	if err != nil {
		t.logger.ErrorContext(ctx, "Failed to shut down HTTP server", "error", err)
	}

	cronCtx := runner.Stop()
	<-cronCtx.Done()

	// Writers drain after the subscription stops feeding them.
	t.reporter.Stop()

	return nil
}
