package main

import (
	"context"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/cmd"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/eventbus"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/log"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/otelhelper"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/status"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/workflow"
)

func workerCommand() *cli.Command {
	flags := append(commonFlags(),
		&cli.StringFlag{
			Name:    "worker-id",
			Aliases: []string{"id"},
			Usage:   "Custom worker ID (auto-generated if not provided)",
			Sources: cli.EnvVars("WORKER_ID"),
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "Redis address for durable step results (falls back to the database)",
			Sources: cli.EnvVars("REDIS_URL"),
		},
		&cli.BoolFlag{
			Name:    "tracing",
			Usage:   "Enable OpenTelemetry tracing",
			Sources: cli.EnvVars("TRACING_ENABLED"),
		},
	)

	return &cli.Command{
		Name:   "worker",
		Usage:  "Consume execution requests and run workflows",
		Flags:  flags,
		Action: runWorker,
	}
}

func runWorker(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"), command.String("log-format"))

	workerID := command.String("worker-id")
	if workerID == "" {
		workerID = "worker-" + uuid.New().String()[:8]
	}

	logger := log.WithModule("worker").With("worker_id", workerID)
	logger.InfoContext(ctx, "Starting workflow worker")

	pub, sub, err := cmd.NewChannel(command.String("event-bus"), "flowd", logger)
	if err != nil {
		return err
	}

	bus := eventbus.NewWatermillEventBus(pub, sub)
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

	steps, err := cmd.NewStepStore(ctx, command.String("redis-url"), persistence)
	if err != nil {
		return err
	}

	starter := &deferredStarter{}
	registry := cmd.NewRegistry(logger, starter)

	options := []workflow.RunnerOption{
		workflow.WithExecutionRepository(persistence),
		workflow.WithStatusPublisher(status.NewPublisher(pub, logger)),
	}

	if command.Bool("tracing") {
		tracer, err := otelhelper.NewTracer(ctx, "flowd-worker")
		if err != nil {
			return err
		}

		options = append(options, workflow.WithTracer(tracer))
	}

	runner := workflow.NewRunner(registry, steps, logger, options...)
	repository := workflow.NewRepository(persistence)

	manager := workflow.NewManager(workerID, repository, runner, bus, logger)
	starter.delegate = manager

	if err := manager.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	logger.InfoContext(ctx, "Shutting down, waiting for in-flight runs")
	manager.Stop()

	return nil
}
