package models

import "time"

// WorkflowStatus represents the lifecycle state of a workflow.
type WorkflowStatus string

const (
	WorkflowStatusDraft     WorkflowStatus = "draft"     // Editable, not executable
	WorkflowStatusPublished WorkflowStatus = "published" // Active, executable
	WorkflowStatusArchived  WorkflowStatus = "archived"  // Historical, not executable
)

// Workflow represents a directed acyclic graph of typed nodes. Only the
// subgraph reachable from trigger nodes is executable.
type Workflow struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"   validate:"required,min=3"`
	Description string         `json:"description,omitempty"`
	Status      WorkflowStatus `json:"status" validate:"required"`
	Nodes       []*Node        `json:"nodes"  validate:"required,min=1,dive"`
	Edges       []*Edge        `json:"edges"  validate:"dive"`
	Owner       string         `json:"owner"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NodeByID returns the node with the given ID, or nil.
func (w *Workflow) NodeByID(id string) *Node {
	for _, node := range w.Nodes {
		if node.ID == id {
			return node
		}
	}

	return nil
}

// TriggerNodes returns the workflow's entry-point nodes, excluding error
// triggers, which are only activated out-of-band on node failure.
func (w *Workflow) TriggerNodes() []*Node {
	var triggers []*Node

	for _, node := range w.Nodes {
		if node.IsTrigger() && node.Type != NodeTypeTriggerError {
			triggers = append(triggers, node)
		}
	}

	return triggers
}

// ErrorTriggerNodes returns the nodes wired as failure handlers.
func (w *Workflow) ErrorTriggerNodes() []*Node {
	var triggers []*Node

	for _, node := range w.Nodes {
		if node.Type == NodeTypeTriggerError {
			triggers = append(triggers, node)
		}
	}

	return triggers
}
