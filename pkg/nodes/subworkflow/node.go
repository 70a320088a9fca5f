// Package subworkflow provides the child-run executor. It requests a new run
// of another workflow over the event bus and does not wait for the child to
// finish.
package subworkflow

import (
	"context"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/events"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/models"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/protocol"
)

const DefaultVariable = "subworkflow"

// Starter requests a new run of another workflow. The workflow runner's event
// bus satisfies this.
type Starter interface {
	RequestExecution(ctx context.Context, event events.ExecutionRequested) error
}

type Executor struct {
	nodeID  string
	starter Starter
}

func NewExecutor(nodeID string, starter Starter) *Executor {
	return &Executor{nodeID: nodeID, starter: starter}
}

func (e *Executor) Type() string {
	return models.NodeTypeSubWorkflow
}

func (e *Executor) Execute(ctx context.Context, input protocol.ExecutionInput) (map[string]any, error) {
	input.Publish(e.nodeID, models.NodeStatusLoading, "")

	workflowID, ok := input.Data["workflow_id"].(string)
	if !ok || workflowID == "" {
		err := protocol.MissingFieldError("workflow_id")
		input.Publish(e.nodeID, models.NodeStatusError, err.Error())

		return nil, err
	}

	payload, _ := input.Data["payload"].(map[string]any)

	event := events.ExecutionRequested{
		BaseEvent:   events.NewBaseEvent(events.ExecutionRequestedEvent, workflowID),
		UserID:      input.UserID,
		TriggerData: payload,
	}

	result, err := input.Steps.Run(ctx, "start-"+e.nodeID, func(stepCtx context.Context) (any, error) {
		if startErr := e.starter.RequestExecution(stepCtx, event); startErr != nil {
			return nil, startErr
		}

		return map[string]any{
			"workflow_id": workflowID,
			"request_id":  event.ID,
			// The child run is queued, not yet picked up by a worker.
			"status": string(models.RunStatusPending),
		}, nil
	})
	if err != nil {
		input.Publish(e.nodeID, models.NodeStatusError, err.Error())

		return nil, err
	}

	input.Publish(e.nodeID, models.NodeStatusSuccess, "")

	return map[string]any{
		input.Variable(DefaultVariable): result,
	}, nil
}
