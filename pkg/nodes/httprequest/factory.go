package httprequest

import (
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/models"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/protocol"
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) ID() string {
	return models.NodeTypeHTTPRequest
}

func (f *Factory) Name() string {
	return "HTTP Request"
}

func (f *Factory) Description() string {
	return "Calls an external HTTP endpoint and exposes the response to downstream nodes"
}

func (f *Factory) Create(nodeID string) (protocol.Executor, error) {
	return NewExecutor(nodeID), nil
}

func (f *Factory) OutputFields() []models.VariableField {
	return []models.VariableField{
		{Key: "data", Label: "Parsed JSON body", Type: "object"},
		{Key: "body", Label: "Raw body", Type: "string"},
		{Key: "status", Label: "Status code", Type: "number"},
		{Key: "headers", Label: "Response headers", Type: "object"},
	}
}
