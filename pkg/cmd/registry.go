// Package cmd provides the shared wiring used by the command-line entry
// points: event bus, persistence, step store, and executor registry setup.
package cmd

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/nodes/ai"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/nodes/email"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/nodes/subworkflow"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/registry"
)

// NewRegistry builds the executor registry with every built-in node type,
// configured from the environment. Starter may be nil for surfaces that never
// execute subworkflow nodes.
func NewRegistry(logger *slog.Logger, starter subworkflow.Starter) *registry.Registry {
	reg := registry.NewRegistry(logger)

	registry.RegisterDefaultExecutors(reg, logger, registry.Config{
		SMTP:    smtpConfigFromEnv(),
		AI:      aiConfigFromEnv(),
		Starter: starter,
	})

	return reg
}

func smtpConfigFromEnv() email.SMTPConfig {
	port := 587
	if value, err := strconv.Atoi(os.Getenv("SMTP_PORT")); err == nil {
		port = value
	}

	return email.SMTPConfig{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     port,
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("SMTP_FROM"),
	}
}

func aiConfigFromEnv() ai.APIConfig {
	return ai.APIConfig{
		BaseURL: os.Getenv("AI_API_BASE_URL"),
		APIKey:  os.Getenv("AI_API_KEY"),
	}
}
