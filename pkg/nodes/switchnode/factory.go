package switchnode

import (
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/models"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/protocol"
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) ID() string {
	return models.NodeTypeSwitch
}

func (f *Factory) Name() string {
	return "Switch"
}

func (f *Factory) Description() string {
	return "Routes execution to the outgoing branch whose label matches the value"
}

func (f *Factory) Create(nodeID string) (protocol.Executor, error) {
	return NewExecutor(nodeID), nil
}

func (f *Factory) OutputFields() []models.VariableField {
	return []models.VariableField{
		{Key: "value", Label: "Evaluated value", Type: "string"},
		{Key: "branch", Label: "Selected branch", Type: "string"},
	}
}
