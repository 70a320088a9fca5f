// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/durable"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/models"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/protocol"
)

// CreateTestNode creates a test Node with default values that can be overridden.
func CreateTestNode(overrides ...func(*models.Node)) *models.Node {
	node := &models.Node{
		ID:   uuid.New().String(),
		Type: models.NodeTypeLog,
		Name: "Test Node",
		Data: map[string]any{"message": "test", "level": "info"},
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// WithTriggerNode configures the node as a webhook trigger.
func WithTriggerNode() func(*models.Node) {
	return func(n *models.Node) {
		n.Type = models.NodeTypeTriggerWebhook
		n.Data = map[string]any{}
	}
}

// WithData sets the node configuration data.
func WithData(data map[string]any) func(*models.Node) {
	return func(n *models.Node) {
		n.Data = data
	}
}

// WithName sets the node name.
func WithName(name string) func(*models.Node) {
	return func(n *models.Node) {
		n.Name = name
	}
}

// WithType sets the node type.
func WithType(nodeType string) func(*models.Node) {
	return func(n *models.Node) {
		n.Type = nodeType
	}
}

// WithID sets the node ID.
func WithID(id string) func(*models.Node) {
	return func(n *models.Node) {
		n.ID = id
	}
}

// WithDisabled marks the node disabled.
func WithDisabled() func(*models.Node) {
	return func(n *models.Node) {
		n.Disabled = true
	}
}

// CreateTestWorkflow creates an empty published test workflow.
func CreateTestWorkflow() *models.Workflow {
	return &models.Workflow{
		ID:          uuid.New().String(),
		Name:        "Test Workflow",
		Description: "A workflow for testing",
		Status:      models.WorkflowStatusPublished,
		Owner:       "test-user",
		Nodes:       []*models.Node{},
		Edges:       []*models.Edge{},
	}
}

// CreateTestWorkflowWithNodes creates a test workflow with a webhook trigger
// wired to a log node.
func CreateTestWorkflowWithNodes() *models.Workflow {
	workflow := CreateTestWorkflow()

	triggerNode := CreateTestNode(WithTriggerNode(), WithID("trigger-1"))
	actionNode := CreateTestNode(WithID("action-1"), WithName("Log Action"))

	workflow.Nodes = []*models.Node{triggerNode, actionNode}
	workflow.Edges = []*models.Edge{CreateTestEdge("trigger-1", "action-1")}

	return workflow
}

// CreateTestEdge creates an edge between two nodes.
func CreateTestEdge(sourceNodeID, targetNodeID string) *models.Edge {
	return &models.Edge{
		ID:     uuid.New().String(),
		Source: sourceNodeID,
		Target: targetNodeID,
	}
}

// CreateTestEdgeWithHandle creates an edge leaving a specific branch handle.
func CreateTestEdgeWithHandle(sourceNodeID, handle, targetNodeID string) *models.Edge {
	return &models.Edge{
		ID:           uuid.New().String(),
		Source:       sourceNodeID,
		SourceHandle: handle,
		Target:       targetNodeID,
	}
}

// EventRecorder collects published status events for assertions.
type EventRecorder struct {
	mu     sync.Mutex
	events []models.NodeResult
}

func (r *EventRecorder) Publish(nodeID string, status models.NodeStatus, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, models.NodeResult{
		NodeID: nodeID,
		Status: status,
		Error:  message,
	})
}

// Events returns a snapshot of everything recorded so far.
func (r *EventRecorder) Events() []models.NodeResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]models.NodeResult(nil), r.events...)
}

// Statuses returns just the recorded status values, in publish order.
func (r *EventRecorder) Statuses() []models.NodeStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	statuses := make([]models.NodeStatus, 0, len(r.events))
	for _, event := range r.events {
		statuses = append(statuses, event.Status)
	}

	return statuses
}

// CreateExecutionInput builds an ExecutionInput backed by an in-memory step
// store with a single-attempt retry policy, suitable for executor unit tests.
func CreateExecutionInput(nodeID string, data map[string]any, recorder *EventRecorder) protocol.ExecutionInput {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	policy := durable.RetryPolicy{MaxAttempts: 1, InitialDelay: 0, Multiplier: 1, MaxDelay: 0}

	publish := protocol.PublishFunc(func(string, models.NodeStatus, string) {})
	if recorder != nil {
		publish = recorder.Publish
	}

	return protocol.ExecutionInput{
		NodeID:  nodeID,
		UserID:  "test-user",
		Data:    data,
		Context: map[string]any{},
		Steps:   durable.NewRunner(uuid.New().String(), durable.NewMemoryStore(), policy, logger),
		Publish: publish,
	}
}
