package models

import "time"

// RunStatus represents the lifecycle state of a single workflow run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// ExecutionContext is the mutable variable space of one run: a mapping from
// output variable name to that node's last output value, plus a "trigger"
// entry seeded from the inbound event. The runner owns it exclusively;
// executors borrow it read-only and return new output instead of mutating it.
type ExecutionContext struct {
	ID         string         `json:"id"`
	WorkflowID string         `json:"workflow_id"`
	Values     map[string]any `json:"values"`
}

// TriggerVariable is the context entry seeded from the inbound event.
const TriggerVariable = "trigger"

// NewExecutionContext creates a context seeded with the trigger event data.
func NewExecutionContext(id, workflowID string, triggerData map[string]any) *ExecutionContext {
	values := make(map[string]any)
	if triggerData != nil {
		values[TriggerVariable] = triggerData
	}

	return &ExecutionContext{
		ID:         id,
		WorkflowID: workflowID,
		Values:     values,
	}
}

// Set binds a variable to a node output. Context writes are append/overwrite
// only; entries are never removed during a run.
func (c *ExecutionContext) Set(variable string, value any) {
	c.Values[variable] = value
}

// Fork returns a shallow copy of the context with the extra values merged in.
// Loop iterations run against forks so that currentItem/index never leak into
// sibling iterations or the parent run.
func (c *ExecutionContext) Fork(extra map[string]any) *ExecutionContext {
	values := make(map[string]any, len(c.Values)+len(extra))
	for k, v := range c.Values {
		values[k] = v
	}

	for k, v := range extra {
		values[k] = v
	}

	return &ExecutionContext{
		ID:         c.ID,
		WorkflowID: c.WorkflowID,
		Values:     values,
	}
}

// ExecutionRecord is the per-run, per-node status row. It is created when the
// runner begins a node, updated at most twice (loading, then success or
// error) and immutable thereafter.
type ExecutionRecord struct {
	ExecutionID string         `json:"execution_id"`
	WorkflowID  string         `json:"workflow_id"`
	NodeID      string         `json:"node_id"`
	NodeType    string         `json:"node_type"`
	Status      NodeStatus     `json:"status"`
	Output      map[string]any `json:"output,omitempty"`
	Error       string         `json:"error,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	FinishedAt  *time.Time     `json:"finished_at,omitempty"`
}

// Terminal reports whether the record has reached its final status.
func (r *ExecutionRecord) Terminal() bool {
	return r.Status == NodeStatusSuccess || r.Status == NodeStatusError
}
