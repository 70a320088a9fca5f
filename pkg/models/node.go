// Package models defines the core domain models for node-graph workflow execution.
package models

import "time"

// CategoryType represents the category of node.
type CategoryType string

const (
	CategoryTypeAction  CategoryType = "action"  // Regular action nodes (httprequest, email, setfields, etc.)
	CategoryTypeTrigger CategoryType = "trigger" // Graph entry points (webhook, schedule, manual, error)
)

// Built-in node types. The set is closed: adding a type means adding an
// executor package and registering its factory, not altering dispatch.
const (
	NodeTypeTriggerWebhook  = "trigger:webhook"
	NodeTypeTriggerSchedule = "trigger:schedule"
	NodeTypeTriggerManual   = "trigger:manual"
	NodeTypeTriggerError    = "trigger:error"

	NodeTypeHTTPRequest = "httprequest"
	NodeTypeEmail       = "email"
	NodeTypeAI          = "ai"
	NodeTypeSetFields   = "setfields"
	NodeTypeCondition   = "condition"
	NodeTypeSwitch      = "switch"
	NodeTypeLoop        = "loop"
	NodeTypeMerge       = "merge"
	NodeTypeWait        = "wait"
	NodeTypeSubWorkflow = "subworkflow"
	NodeTypeLog         = "log"
)

// BranchKey is the output discriminator written by branching nodes
// (condition, switch). The runner follows only outgoing edges whose
// SourceHandle matches this value.
const BranchKey = "__branch"

// Node represents a node instance in a workflow graph. Data is an opaque,
// user-edited configuration object whose string fields may contain template
// expressions.
type Node struct {
	ID       string         `json:"id"   validate:"required"`
	Type     string         `json:"type" validate:"required"`
	Data     map[string]any `json:"data"`
	Name     string         `json:"name,omitempty"`
	Disabled bool           `json:"disabled,omitempty"`
}

// IsTrigger reports whether the node marks a graph entry point.
func (n *Node) IsTrigger() bool {
	return n.Type == NodeTypeTriggerWebhook ||
		n.Type == NodeTypeTriggerSchedule ||
		n.Type == NodeTypeTriggerManual ||
		n.Type == NodeTypeTriggerError
}

// Category classifies a node type for the editor palette.
func Category(nodeType string) CategoryType {
	node := Node{Type: nodeType}
	if node.IsTrigger() {
		return CategoryTypeTrigger
	}

	return CategoryTypeAction
}

// NodeStatus defines the possible states of a node execution within a run.
type NodeStatus string

const (
	NodeStatusLoading NodeStatus = "loading"
	NodeStatusSuccess NodeStatus = "success"
	NodeStatusError   NodeStatus = "error"
)

// VariableField describes one addressable output field of a node type.
// The editor uses these to generate mock contexts and autocomplete entries;
// the runner itself never consults them.
type VariableField struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// NodeResult captures the outcome of a single node execution.
type NodeResult struct {
	NodeID    string         `json:"node_id"`
	Output    map[string]any `json:"output,omitempty"`
	Status    NodeStatus     `json:"status"`
	Error     string         `json:"error,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}
