// Package lognode provides the logging executor.
package lognode

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/models"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/protocol"
)

const DefaultVariable = "log"

type Executor struct {
	nodeID string
	logger *slog.Logger
}

func NewExecutor(nodeID string, logger *slog.Logger) *Executor {
	return &Executor{nodeID: nodeID, logger: logger}
}

func (e *Executor) Type() string {
	return models.NodeTypeLog
}

func (e *Executor) Execute(ctx context.Context, input protocol.ExecutionInput) (map[string]any, error) {
	input.Publish(e.nodeID, models.NodeStatusLoading, "")

	message := ""
	if raw, ok := input.Data["message"]; ok {
		message = fmt.Sprintf("%v", raw)
	}

	level := slog.LevelInfo
	if raw, ok := input.Data["level"].(string); ok {
		switch raw {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}

	e.logger.Log(ctx, level, message, "node_id", e.nodeID)

	input.Publish(e.nodeID, models.NodeStatusSuccess, "")

	return map[string]any{
		input.Variable(DefaultVariable): map[string]any{
			"message": message,
		},
	}, nil
}
