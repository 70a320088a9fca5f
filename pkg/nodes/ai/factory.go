package ai

import (
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/models"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/protocol"
)

type Factory struct {
	config APIConfig
}

func NewFactory(config APIConfig) *Factory {
	return &Factory{config: config}
}

func (f *Factory) ID() string {
	return models.NodeTypeAI
}

func (f *Factory) Name() string {
	return "AI Completion"
}

func (f *Factory) Description() string {
	return "Sends a prompt to a chat completion model and exposes the response"
}

func (f *Factory) Create(nodeID string) (protocol.Executor, error) {
	return NewExecutor(nodeID, f.config), nil
}

func (f *Factory) OutputFields() []models.VariableField {
	return []models.VariableField{
		{Key: "response", Label: "Model response", Type: "string"},
		{Key: "model", Label: "Model name", Type: "string"},
		{Key: "tokens", Label: "Token usage", Type: "number"},
	}
}
