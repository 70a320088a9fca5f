// Package setfields provides the data shaping executor. It exposes a map of
// resolved fields to downstream nodes without any side effects.
package setfields

import (
	"context"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/models"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/protocol"
)

const DefaultVariable = "fields"

type Executor struct {
	nodeID string
}

func NewExecutor(nodeID string) *Executor {
	return &Executor{nodeID: nodeID}
}

func (e *Executor) Type() string {
	return models.NodeTypeSetFields
}

// Execute copies the already-resolved fields map into the output. Missing
// configuration yields an empty map rather than an error so the node can be
// used as a plain pass-through.
func (e *Executor) Execute(_ context.Context, input protocol.ExecutionInput) (map[string]any, error) {
	input.Publish(e.nodeID, models.NodeStatusLoading, "")

	fields := map[string]any{}

	if raw, ok := input.Data["fields"].(map[string]any); ok {
		for key, value := range raw {
			fields[key] = value
		}
	}

	input.Publish(e.nodeID, models.NodeStatusSuccess, "")

	return map[string]any{
		input.Variable(DefaultVariable): map[string]any{
			"fields": fields,
		},
	}, nil
}
