package setfields

import (
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/models"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/protocol"
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) ID() string {
	return models.NodeTypeSetFields
}

func (f *Factory) Name() string {
	return "Set Fields"
}

func (f *Factory) Description() string {
	return "Builds a map of named values for downstream nodes"
}

func (f *Factory) Create(nodeID string) (protocol.Executor, error) {
	return NewExecutor(nodeID), nil
}

func (f *Factory) OutputFields() []models.VariableField {
	return []models.VariableField{
		{Key: "fields", Label: "Resolved fields", Type: "object"},
	}
}
