package main

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/cmd"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/log"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/web"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/workflow"
)

func apiCommand() *cli.Command {
	flags := append(commonFlags(),
		&cli.StringFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "HTTP listen port",
			Value:   "3000",
			Sources: cli.EnvVars("PORT"),
		},
	)

	return &cli.Command{
		Name:   "api",
		Usage:  "Serve the workflow management and webhook API",
		Flags:  flags,
		Action: runAPI,
	}
}

func runAPI(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"), command.String("log-format"))
	logger := log.WithModule("api")

	bus, err := cmd.NewEventBus(command.String("event-bus"), "flowd-api", logger)
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
	starter := &busStarter{workerID: "api-" + uuid.New().String()[:8], bus: bus}
	registry := cmd.NewRegistry(logger, starter)

	handlers := web.NewAPIHandlers(repository, registry, persistence, starter, logger)

	app := fiber.New(fiber.Config{AppName: "flowd-api"})
	handlers.Register(app)

	go func() {
		<-ctx.Done()

		if err := app.Shutdown(); err != nil {
			logger.Error("Failed to shut down HTTP server", "error", err)
		}
	}()

	logger.InfoContext(ctx, "Serving API", "port", command.String("port"))

	return app.Listen(":" + command.String("port"))
}
