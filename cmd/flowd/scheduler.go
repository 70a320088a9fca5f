package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/cmd"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/log"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/scheduler"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/workflow"
)

func schedulerCommand() *cli.Command {
	flags := append(commonFlags(),
		&cli.DurationFlag{
			Name:    "refresh-interval",
			Usage:   "How often the schedule table is re-synced with stored workflows",
			Value:   time.Minute,
			Sources: cli.EnvVars("SCHEDULER_REFRESH_INTERVAL"),
		},
	)

	return &cli.Command{
		Name:   "scheduler",
		Usage:  "Dispatch execution requests for schedule trigger nodes",
		Flags:  flags,
		Action: runScheduler,
	}
}

func runScheduler(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"), command.String("log-format"))
	logger := log.WithModule("scheduler")

	bus, err := cmd.NewEventBus(command.String("event-bus"), "flowd-scheduler", logger)
	if err != nil {
		return err
	}

	defer func() {
		if err := bus.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return err
	}

	defer func() {
		if err := persistence.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	repository := workflow.NewRepository(persistence)
	starter := &busStarter{workerID: "scheduler-" + uuid.New().String()[:8], bus: bus}

	dispatcher := scheduler.New(repository, starter, logger,
		scheduler.WithRefreshInterval(command.Duration("refresh-interval")))

	logger.InfoContext(ctx, "Starting schedule dispatcher")

	return dispatcher.Start(ctx)
}
