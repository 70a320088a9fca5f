// Package merge provides the fan-in executor. The runner injects the outputs
// of every incoming branch under the "inputs" data key once all predecessors
// have finished; the executor combines them according to its mode.
package merge

import (
	"context"
	"sort"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/models"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/protocol"
)

const (
	DefaultVariable = "merged"

	// ModeCombine deep-merges all branch outputs into a single map.
	ModeCombine = "combine"
	// ModeAppend collects branch outputs into a list ordered by source node ID.
	ModeAppend = "append"
)

type Executor struct {
	nodeID string
}

func NewExecutor(nodeID string) *Executor {
	return &Executor{nodeID: nodeID}
}

func (e *Executor) Type() string {
	return models.NodeTypeMerge
}

func (e *Executor) Execute(_ context.Context, input protocol.ExecutionInput) (map[string]any, error) {
	input.Publish(e.nodeID, models.NodeStatusLoading, "")

	inputs, _ := input.Data["inputs"].(map[string]any)

	mode := ModeCombine
	if m, ok := input.Data["mode"].(string); ok && m != "" {
		mode = m
	}

	sources := make([]string, 0, len(inputs))
	for source := range inputs {
		sources = append(sources, source)
	}

	sort.Strings(sources)

	var result any

	switch mode {
	case ModeAppend:
		items := make([]any, 0, len(sources))
		for _, source := range sources {
			items = append(items, inputs[source])
		}

		result = items
	default:
		combined := map[string]any{}

		for _, source := range sources {
			if branch, ok := inputs[source].(map[string]any); ok {
				for key, value := range branch {
					combined[key] = value
				}
			}
		}

		result = combined
	}

	input.Publish(e.nodeID, models.NodeStatusSuccess, "")

	return map[string]any{
		input.Variable(DefaultVariable): map[string]any{
			"data":    result,
			"sources": sources,
		},
	}, nil
}
