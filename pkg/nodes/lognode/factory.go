package lognode

import (
	"log/slog"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/models"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/protocol"
)

type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	return &Factory{logger: logger}
}

func (f *Factory) ID() string {
	return models.NodeTypeLog
}

func (f *Factory) Name() string {
	return "Log"
}

func (f *Factory) Description() string {
	return "Writes a message to the worker log"
}

func (f *Factory) Create(nodeID string) (protocol.Executor, error) {
	return NewExecutor(nodeID, f.logger), nil
}

func (f *Factory) OutputFields() []models.VariableField {
	return []models.VariableField{
		{Key: "message", Label: "Logged message", Type: "string"},
	}
}
