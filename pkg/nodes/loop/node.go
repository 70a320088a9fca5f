// Package loop provides the iteration executor. The executor itself only
// validates and exposes the item collection; the runner drives the per-item
// execution of the loop body subgraph.
package loop

import (
	"context"
	"fmt"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/models"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/protocol"
)

const (
	DefaultVariable = "loop"

	// OnErrorContinue skips a failed iteration and moves on.
	OnErrorContinue = "continue"
	// OnErrorAbort fails the loop on the first failed iteration.
	OnErrorAbort = "abort"
)

type Executor struct {
	nodeID string
}

func NewExecutor(nodeID string) *Executor {
	return &Executor{nodeID: nodeID}
}

func (e *Executor) Type() string {
	return models.NodeTypeLoop
}

// Execute validates the items collection and surfaces it together with the
// configured failure policy. An empty collection is valid and produces zero
// iterations downstream.
func (e *Executor) Execute(_ context.Context, input protocol.ExecutionInput) (map[string]any, error) {
	input.Publish(e.nodeID, models.NodeStatusLoading, "")

	raw, ok := input.Data["items"]
	if !ok {
		err := protocol.MissingFieldError("items")
		input.Publish(e.nodeID, models.NodeStatusError, err.Error())

		return nil, err
	}

	items, ok := raw.([]any)
	if !ok {
		err := protocol.NonRetriableErrorf("items must be an array, got %T", raw)
		input.Publish(e.nodeID, models.NodeStatusError, err.Error())

		return nil, err
	}

	onError := OnErrorContinue
	if policy, ok := input.Data["on_error"].(string); ok && policy != "" {
		if policy != OnErrorContinue && policy != OnErrorAbort {
			err := protocol.NonRetriableErrorf("invalid on_error policy %q", policy)
			input.Publish(e.nodeID, models.NodeStatusError, err.Error())

			return nil, err
		}

		onError = policy
	}

	input.Publish(e.nodeID, models.NodeStatusSuccess, fmt.Sprintf("%d items", len(items)))

	return map[string]any{
		input.Variable(DefaultVariable): map[string]any{
			"items":    items,
			"count":    len(items),
			"on_error": onError,
		},
	}, nil
}
