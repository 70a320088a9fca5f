package subworkflow

import (
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/models"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/protocol"
)

type Factory struct {
	starter Starter
}

func NewFactory(starter Starter) *Factory {
	return &Factory{starter: starter}
}

func (f *Factory) ID() string {
	return models.NodeTypeSubWorkflow
}

func (f *Factory) Name() string {
	return "Subworkflow"
}

func (f *Factory) Description() string {
	return "Starts a run of another workflow"
}

func (f *Factory) Create(nodeID string) (protocol.Executor, error) {
	return NewExecutor(nodeID, f.starter), nil
}

func (f *Factory) OutputFields() []models.VariableField {
	return []models.VariableField{
		{Key: "workflow_id", Label: "Child workflow ID", Type: "string"},
		{Key: "request_id", Label: "Request event ID", Type: "string"},
		{Key: "status", Label: "Child run status", Type: "string"},
	}
}
