// Package protocol defines the contracts shared by every node executor.
package protocol

import (
	"context"
	"time"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/models"
)

// StepRunner is the durable-step handle passed to executors. Side-effecting
// work must go through Run so that interrupted runs can resume without
// repeating committed steps. Step names must be unique within one node's
// execution; the "{operation}-{nodeID}" convention keeps them collision-free.
type StepRunner interface {
	Run(ctx context.Context, stepName string, fn func(ctx context.Context) (any, error)) (any, error)
	Sleep(ctx context.Context, stepName string, d time.Duration) error
}

// PublishFunc emits a status event for a node. Delivery is best effort;
// publish failures never fail the node's execution.
type PublishFunc func(nodeID string, status models.NodeStatus, message string)

// ExecutionInput bundles everything an executor may consult. Data is the
// node's configuration after template resolution; Context is the run's
// variable space, borrowed read-only.
type ExecutionInput struct {
	NodeID  string
	UserID  string
	Data    map[string]any
	Context map[string]any
	Steps   StepRunner
	Publish PublishFunc
}

// Variable returns the output variable name for this node: the user-supplied
// "variable" field, or the given per-type default.
func (in ExecutionInput) Variable(fallback string) string {
	if v, ok := in.Data["variable"].(string); ok && v != "" {
		return v
	}

	return fallback
}

// Executor is the single capability every node type implements. Execute
// returns `{variableName: value}`; it fails by returning a retriable error
// (transient, retried by the durable step runner) or a non-retriable one
// (validation and permanent failures, fails the node immediately).
type Executor interface {
	Type() string
	Execute(ctx context.Context, input ExecutionInput) (map[string]any, error)
}

// ExecutorFactory creates executor instances and describes the node type to
// the editor.
type ExecutorFactory interface {
	// ID returns the node type tag this factory serves.
	ID() string

	// Name returns the human-readable name for this node type.
	Name() string

	// Description returns a description of what the node does.
	Description() string

	// Create builds an executor bound to the given node.
	Create(nodeID string) (Executor, error)

	// OutputFields lists the addressable output fields of this node type,
	// used for mock contexts and editor autocomplete.
	OutputFields() []models.VariableField
}
