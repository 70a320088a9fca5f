// Package condition provides the boolean branching executor.
package condition

import (
	"context"
	"strconv"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/models"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/protocol"
)

const (
	DefaultVariable = "condition"

	BranchTrue  = "true"
	BranchFalse = "false"
)

type Executor struct {
	nodeID string
}

func NewExecutor(nodeID string) *Executor {
	return &Executor{nodeID: nodeID}
}

func (e *Executor) Type() string {
	return models.NodeTypeCondition
}

// Execute evaluates the resolved condition value for truthiness and writes
// the branch discriminator the runner uses to pick outgoing edges.
func (e *Executor) Execute(_ context.Context, input protocol.ExecutionInput) (map[string]any, error) {
	input.Publish(e.nodeID, models.NodeStatusLoading, "")

	value, ok := input.Data["condition"]
	if !ok {
		err := protocol.MissingFieldError("condition")
		input.Publish(e.nodeID, models.NodeStatusError, err.Error())

		return nil, err
	}

	result := truthy(value)

	branch := BranchFalse
	if result {
		branch = BranchTrue
	}

	input.Publish(e.nodeID, models.NodeStatusSuccess, "")

	return map[string]any{
		input.Variable(DefaultVariable): map[string]any{
			"result": result,
			"value":  value,
		},
		models.BranchKey: branch,
	}, nil
}

func truthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}

		return v != ""
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	case nil:
		return false
	default:
		return false
	}
}
