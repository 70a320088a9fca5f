// Package events defines the run lifecycle events exchanged between the
// ingress surfaces and the execution workers.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic is the shared bus topic for run lifecycle events.
const Topic = "flow.executions"

const EventTypeMetadataKey = "event_type"

const (
	ExecutionRequestedEvent EventType = "execution.requested"
	ExecutionFinishedEvent  EventType = "execution.finished"
	ExecutionFailedEvent    EventType = "execution.failed"
)

type BaseEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	WorkflowID string    `json:"workflow_id"`
	WorkerID   string    `json:"worker_id,omitempty"`
}

func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
	}
}

// ExecutionRequested asks a worker to start a run. TriggerNodeID names the
// entry node the event arrived through; TriggerData is the inbound event
// payload seeded into the execution context. ExecutionID, when set, resumes
// an interrupted run: the worker replays that run's committed durable steps
// instead of starting from scratch.
type ExecutionRequested struct {
	BaseEvent

	ExecutionID   string         `json:"execution_id,omitempty"`
	TriggerNodeID string         `json:"trigger_node_id,omitempty"`
	UserID        string         `json:"user_id,omitempty"`
	TriggerData   map[string]any `json:"trigger_data,omitempty"`
}

func (e ExecutionRequested) GetType() EventType {
	return ExecutionRequestedEvent
}

// ExecutionFinished reports a completed run.
type ExecutionFinished struct {
	BaseEvent

	ExecutionID   string        `json:"execution_id"`
	Status        string        `json:"status"`
	NodesExecuted int           `json:"nodes_executed"`
	Duration      time.Duration `json:"duration"`
}

func (e ExecutionFinished) GetType() EventType {
	return ExecutionFinishedEvent
}

// ExecutionFailed reports a run that ended with an unhandled node error.
type ExecutionFailed struct {
	BaseEvent

	ExecutionID string        `json:"execution_id"`
	NodeID      string        `json:"node_id,omitempty"`
	Error       string        `json:"error"`
	Duration    time.Duration `json:"duration"`
}

func (e ExecutionFailed) GetType() EventType {
	return ExecutionFailedEvent
}
