package condition

import (
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/models"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/protocol"
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) ID() string {
	return models.NodeTypeCondition
}

func (f *Factory) Name() string {
	return "Condition"
}

func (f *Factory) Description() string {
	return "Routes execution to the true or false branch based on a condition"
}

func (f *Factory) Create(nodeID string) (protocol.Executor, error) {
	return NewExecutor(nodeID), nil
}

func (f *Factory) OutputFields() []models.VariableField {
	return []models.VariableField{
		{Key: "result", Label: "Condition result", Type: "boolean"},
		{Key: "value", Label: "Evaluated value", Type: "string"},
	}
}
