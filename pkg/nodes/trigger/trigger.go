// Package trigger provides the executors for graph entry points. Trigger
// nodes never call external systems: they echo the inbound event into the
// execution context and exist so every node in a run shares one status
// lifecycle.
package trigger

import (
	"context"
	"time"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/models"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/protocol"
)

// Executor handles all trigger node types; the per-type factories bind the
// type tag and default output variable.
type Executor struct {
	nodeID       string
	nodeType     string
	variable     string
	contextEntry string
}

func (e *Executor) Type() string {
	return e.nodeType
}

// Execute copies the seeded event entry into the node's output variable.
// The copy keeps the event's own keys addressable (e.g. trigger.timestamp)
// instead of nesting them under a wrapper.
func (e *Executor) Execute(_ context.Context, input protocol.ExecutionInput) (map[string]any, error) {
	input.Publish(e.nodeID, models.NodeStatusLoading, "")

	event, _ := input.Context[e.contextEntry].(map[string]any)
	if event == nil {
		event = map[string]any{}
	}

	echoed := make(map[string]any, len(event)+1)
	for k, v := range event {
		echoed[k] = v
	}

	if _, ok := echoed["timestamp"]; !ok {
		echoed["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	}

	input.Publish(e.nodeID, models.NodeStatusSuccess, "")

	return map[string]any{input.Variable(e.variable): echoed}, nil
}
