package loop

import (
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/models"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/protocol"
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) ID() string {
	return models.NodeTypeLoop
}

func (f *Factory) Name() string {
	return "Loop"
}

func (f *Factory) Description() string {
	return "Runs the loop body once per item in a collection"
}

func (f *Factory) Create(nodeID string) (protocol.Executor, error) {
	return NewExecutor(nodeID), nil
}

func (f *Factory) OutputFields() []models.VariableField {
	return []models.VariableField{
		{Key: "items", Label: "Iterated items", Type: "array"},
		{Key: "count", Label: "Item count", Type: "number"},
		{Key: "results", Label: "Per-item results", Type: "array"},
	}
}
