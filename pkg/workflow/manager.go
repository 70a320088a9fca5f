package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/eventbus"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/events"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/models"
)

// Manager connects the event bus to the runner: it consumes execution
// requests, drives each run in its own goroutine, and reports run outcomes
// back onto the bus. It also serves as the Starter for subworkflow nodes.
type Manager struct {
	workerID   string
	repository *Repository
	runner     *Runner
	bus        eventbus.EventBus
	logger     *slog.Logger

	wg sync.WaitGroup
}

func NewManager(workerID string, repository *Repository, runner *Runner, bus eventbus.EventBus, logger *slog.Logger) *Manager {
	return &Manager{
		workerID:   workerID,
		repository: repository,
		runner:     runner,
		bus:        bus,
		logger:     logger.With("module", "workflow_manager", "worker_id", workerID),
	}
}

// Start registers the execution-request handler and starts the bus consumer.
// It returns once the subscription is established; requests are handled on
// background goroutines until the context is cancelled.
func (m *Manager) Start(ctx context.Context) error {
	m.bus.Handle(events.ExecutionRequestedEvent, func(ctx context.Context, event any) error {
		request, ok := event.(*events.ExecutionRequested)
		if !ok {
			return fmt.Errorf("unexpected event payload %T", event)
		}

		m.wg.Add(1)

		// Runs are independent units of concurrency; the bus handler must
		// not block on one run while others wait.
		go func() {
			defer m.wg.Done()
			m.handleExecutionRequested(ctx, request)
		}()

		return nil
	})

	return m.bus.Subscribe(ctx)
}

// Stop waits for in-flight runs to finish.
func (m *Manager) Stop() {
	m.wg.Wait()
}

// RequestExecution publishes an execution request, used by subworkflow nodes
// to start child runs asynchronously.
func (m *Manager) RequestExecution(ctx context.Context, event events.ExecutionRequested) error {
	event.WorkerID = m.workerID

	return m.bus.Publish(ctx, event)
}

func (m *Manager) handleExecutionRequested(ctx context.Context, request *events.ExecutionRequested) {
	logger := m.logger.With("workflow_id", request.WorkflowID, "event_id", request.ID)

	workflow, err := m.repository.FetchByID(ctx, request.WorkflowID)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load workflow for execution", "error", err)
		m.publishFailed(ctx, request.WorkflowID, "", "", err)

		return
	}

	if workflow.Status != models.WorkflowStatusPublished {
		logger.WarnContext(ctx, "Ignoring execution request for unpublished workflow",
			"status", workflow.Status)

		return
	}

	result, err := m.runner.Execute(ctx, RunRequest{
		Workflow:      workflow,
		ExecutionID:   request.ExecutionID,
		TriggerNodeID: request.TriggerNodeID,
		UserID:        request.UserID,
		TriggerData:   request.TriggerData,
	})
	if err != nil {
		logger.ErrorContext(ctx, "Workflow run rejected", "error", err)
		m.publishFailed(ctx, request.WorkflowID, "", "", err)

		return
	}

	if result.Status == models.RunStatusFailed {
		failure := fmt.Errorf("node %s: %s", result.FailedNodeID, result.FailureMessage)
		m.publishFailed(ctx, request.WorkflowID, result.ExecutionID, result.FailedNodeID, failure)

		return
	}

	finished := events.ExecutionFinished{
		BaseEvent:     events.NewBaseEvent(events.ExecutionFinishedEvent, request.WorkflowID),
		ExecutionID:   result.ExecutionID,
		Status:        string(result.Status),
		NodesExecuted: result.NodesExecuted,
		Duration:      result.Duration,
	}
	finished.WorkerID = m.workerID

	if err := m.bus.Publish(ctx, finished); err != nil {
		logger.WarnContext(ctx, "Failed to publish execution finished event", "error", err)
	}
}

func (m *Manager) publishFailed(ctx context.Context, workflowID, executionID, nodeID string, failure error) {
	event := events.ExecutionFailed{
		BaseEvent:   events.NewBaseEvent(events.ExecutionFailedEvent, workflowID),
		ExecutionID: executionID,
		NodeID:      nodeID,
		Error:       failure.Error(),
	}
	event.WorkerID = m.workerID

	if err := m.bus.Publish(ctx, event); err != nil {
		m.logger.WarnContext(ctx, "Failed to publish execution failed event", "error", err)
	}
}
