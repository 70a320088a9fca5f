// Package switchnode provides the multi-way branching executor. It lives in
// its own package name because "switch" is a keyword.
package switchnode

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/models"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/protocol"
)

const (
	DefaultVariable = "switch"

	// DefaultBranch is the fallback handle when no case label matches.
	DefaultBranch = "default"
)

type Executor struct {
	nodeID string
}

func NewExecutor(nodeID string) *Executor {
	return &Executor{nodeID: nodeID}
}

func (e *Executor) Type() string {
	return models.NodeTypeSwitch
}

// Execute stringifies the resolved value and emits it as the branch
// discriminator. When a cases list is configured and the value matches none
// of its labels, the default branch is taken instead.
func (e *Executor) Execute(_ context.Context, input protocol.ExecutionInput) (map[string]any, error) {
	input.Publish(e.nodeID, models.NodeStatusLoading, "")

	value, ok := input.Data["value"]
	if !ok {
		err := protocol.MissingFieldError("value")
		input.Publish(e.nodeID, models.NodeStatusError, err.Error())

		return nil, err
	}

	branch := caseLabel(value)

	if cases, ok := input.Data["cases"].([]any); ok && len(cases) > 0 {
		matched := false

		for _, c := range cases {
			if label, ok := c.(string); ok && label == branch {
				matched = true

				break
			}
		}

		if !matched {
			branch = DefaultBranch
		}
	}

	input.Publish(e.nodeID, models.NodeStatusSuccess, "")

	return map[string]any{
		input.Variable(DefaultVariable): map[string]any{
			"value":  value,
			"branch": branch,
		},
		models.BranchKey: branch,
	}, nil
}

func caseLabel(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
