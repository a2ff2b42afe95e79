package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/flowtrack-io/flowtrack/pkg/cluster"
	"github.com/flowtrack-io/flowtrack/pkg/cmd"
	"github.com/flowtrack-io/flowtrack/pkg/engine"
	"github.com/flowtrack-io/flowtrack/pkg/failover"
	"github.com/flowtrack-io/flowtrack/pkg/log"
	"github.com/flowtrack-io/flowtrack/pkg/registry"
	"github.com/flowtrack-io/flowtrack/pkg/reporter"
)

const defaultPort = 9092

func main() {
	command := &cli.Command{
		Name:                  "flowtrack-tracker",
		EnableShellCompletion: true,
		Usage:                 "Track in-flight workflow instances and rescue them after node failure",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "node-id",
				Aliases: []string{"id"},
				Usage:   "Custom node ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("NODE_ID"),
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the node HTTP API on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for durable storage",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:     "shared-store-url",
				Usage:    "Shared report store URL (redis:// or memory://)",
				Required: true,
				Sources:  cli.EnvVars("SHARED_STORE_URL"),
			},
			&cli.StringFlag{
				Name:     "event-bus",
				Usage:    "Event bus type (kafka, gochannel)",
				Required: true,
				Sources:  cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:     "engine-url",
				Usage:    "Execution engine base URL",
				Required: true,
				Sources:  cli.EnvVars("ENGINE_URL"),
			},
			&cli.StringFlag{
				Name:    "peers",
				Usage:   "Comma-separated peer list (id=host:port,...) for static membership",
				Value:   "",
				Sources: cli.EnvVars("PEERS"),
			},
			&cli.DurationFlag{
				Name:    "rescue-timeout",
				Usage:   "Per-peer timeout for rescue submissions",
				Value:   10 * time.Second,
				Sources: cli.EnvVars("RESCUE_TIMEOUT"),
			},
			&cli.DurationFlag{
				Name:    "entry-ttl",
				Usage:   "TTL of mirrored report entries in the shared store",
				Value:   24 * time.Hour,
				Sources: cli.EnvVars("ENTRY_TTL"),
			},
			&cli.StringFlag{
				Name:    "sweep-schedule",
				Usage:   "Cron schedule for the failover sweep (empty disables it)",
				Value:   "",
				Sources: cli.EnvVars("SWEEP_SCHEDULE"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Enable OTLP tracing of event consumption",
				Value:   false,
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			nodeID := command.String("node-id")
			if nodeID == "" {
				nodeID = "tracker-" + uuid.New().String()[:8]
			}

			logger := log.WithNode("flowtrack-tracker", nodeID)

			logger.InfoContext(ctx, "Initializing Flowtrack tracker")

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				err := eventBus.Close()
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			persist := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			defer func() {
				err := persist.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			store := cmd.NewSharedStore(ctx, logger, command.String("shared-store-url"))
			defer func() {
				err := store.Close()
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close shared store", "error", err)
				}
			}()

			membership, err := cluster.NewStaticMembership(splitPeers(command.String("peers")))
			if err != nil {
				return err
			}

			instanceRegistry := registry.New(logger)
			eng := engine.NewHTTPEngine(logger, command.String("engine-url"), 0)

			rep := reporter.New(
				ctx,
				reporter.Config{
					NodeID:      nodeID,
					ServiceName: "flowtrack-tracker",
					EntryTTL:    command.Duration("entry-ttl"),
				},
				logger,
				instanceRegistry,
				store,
				persist,
				eng,
				eventBus,
			)

			failoverHandler := failover.NewHandler(logger, store, membership, command.Duration("rescue-timeout"))

			tracker := NewTrackerManager(
				nodeID,
				logger,
				eventBus,
				instanceRegistry,
				rep,
				failoverHandler,
				TrackerOptions{
					Port:          command.Int("port"),
					SweepSchedule: command.String("sweep-schedule"),
					Tracing:       command.Bool("tracing"),
				},
			)

			err = tracker.Start(ctx)
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start tracker", "error", err)
			}

			return err
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}

func splitPeers(flag string) []string {
	if flag == "" {
		return nil
	}

	return strings.Split(flag, ",")
}
