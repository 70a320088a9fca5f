// Package workflow contains the DAG walker that drives one run of a node
// graph: it resolves node configuration against the execution context,
// dispatches executors through the registry, records per-node status, and
// applies branch, merge, loop, and error-trigger semantics.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/durable"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/models"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/otelhelper"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/persistence"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/protocol"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/registry"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/status"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/template"
)

// Runner executes workflow runs. Each run owns its execution context and
// records exclusively; a single Runner may drive many concurrent runs.
type Runner struct {
	registry *registry.Registry
	steps    durable.StepStore
	records  persistence.ExecutionRepository
	status   *status.Publisher
	logger   *slog.Logger
	policy   durable.RetryPolicy
	tracer   trace.Tracer
}

// RunnerOption configures optional Runner collaborators.
type RunnerOption func(*Runner)

// WithExecutionRepository persists per-node status records.
func WithExecutionRepository(records persistence.ExecutionRepository) RunnerOption {
	return func(r *Runner) { r.records = records }
}

// WithStatusPublisher broadcasts live node status events.
func WithStatusPublisher(publisher *status.Publisher) RunnerOption {
	return func(r *Runner) { r.status = publisher }
}

// WithRetryPolicy overrides the durable step retry policy.
func WithRetryPolicy(policy durable.RetryPolicy) RunnerOption {
	return func(r *Runner) { r.policy = policy }
}

// WithTracer enables tracing of runs and node executions.
func WithTracer(tracer trace.Tracer) RunnerOption {
	return func(r *Runner) { r.tracer = tracer }
}

// NewRunner creates a workflow runner. The step store backs durable step
// memoization and must be shared across worker restarts for resumability.
func NewRunner(reg *registry.Registry, steps durable.StepStore, logger *slog.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: reg,
		steps:    steps,
		logger:   logger.With("module", "workflow_runner"),
		policy:   durable.DefaultRetryPolicy(),
		tracer:   noop.NewTracerProvider().Tracer(""),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// RunRequest describes one run to execute.
type RunRequest struct {
	Workflow *models.Workflow

	// ExecutionID resumes a prior run's committed steps when set; a fresh
	// ID is generated otherwise.
	ExecutionID string

	// TriggerNodeID selects the entry node the event arrived through. When
	// empty, every trigger node is seeded.
	TriggerNodeID string

	UserID      string
	TriggerData map[string]any
}

// RunResult reports a finished run. Node-level failures end up here, not in
// Execute's error return, which is reserved for engine errors.
type RunResult struct {
	ExecutionID    string
	Status         models.RunStatus
	Context        *models.ExecutionContext
	NodesExecuted  int
	FailedNodeID   string
	FailureMessage string
	Duration       time.Duration
}

// Execute runs the workflow to completion. It returns an error only for
// engine problems (bad graph, unknown entry node); executor failures are
// reported through the result status.
func (r *Runner) Execute(ctx context.Context, req RunRequest) (*RunResult, error) {
	startedAt := time.Now()

	executionID := req.ExecutionID
	if executionID == "" {
		executionID = "exec-" + uuid.New().String()
	}

	g, err := buildGraph(req.Workflow)
	if err != nil {
		return nil, fmt.Errorf("invalid workflow %s: %w", req.Workflow.ID, err)
	}

	seeds, err := entrySeeds(req.Workflow, req.TriggerNodeID)
	if err != nil {
		return nil, err
	}

	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "workflow.execute",
		attribute.String(otelhelper.WorkflowIDKey, req.Workflow.ID),
		attribute.String(otelhelper.ExecutionIDKey, executionID),
	)
	defer span.End()

	logger := r.logger.With("workflow_id", req.Workflow.ID, "execution_id", executionID)
	logger.InfoContext(ctx, "Starting workflow run", "trigger_node_id", req.TriggerNodeID)

	execution := models.NewExecutionContext(executionID, req.Workflow.ID, req.TriggerData)

	state := &runState{
		runner:    r,
		graph:     g,
		workflow:  req.Workflow,
		execution: execution,
		steps:     durable.NewRunner(executionID, r.steps, r.policy, logger),
		userID:    req.UserID,
		logger:    logger,
	}

	result := &RunResult{
		ExecutionID: executionID,
		Status:      models.RunStatusRunning,
		Context:     execution,
	}

	main := state.newTraversal(execution, state.mainAllowed())
	failure := main.run(ctx, seeds)

	switch {
	case failure == nil:
		// No further nodes eligible.
		result.Status = models.RunStatusSucceeded
	case failure.cancelled:
		result.Status = models.RunStatusCancelled
		result.FailedNodeID = failure.nodeID
		result.FailureMessage = failure.err.Error()
	default:
		result.FailedNodeID = failure.nodeID
		result.FailureMessage = failure.err.Error()
		result.Status = models.RunStatusFailed

		otelhelper.SetError(span, failure.err,
			attribute.String(otelhelper.NodeIDKey, failure.nodeID))

		if state.activateErrorTriggers(ctx, failure) {
			// A failure-handling branch consumed the error.
			result.Status = models.RunStatusSucceeded
		}
	}

	result.NodesExecuted = state.executed
	result.Duration = time.Since(startedAt)

	logger.InfoContext(ctx, "Workflow run finished",
		"status", result.Status, "nodes_executed", result.NodesExecuted)

	return result, nil
}

func entrySeeds(workflow *models.Workflow, triggerNodeID string) ([]string, error) {
	if triggerNodeID != "" {
		node := workflow.NodeByID(triggerNodeID)
		if node == nil {
			return nil, fmt.Errorf("trigger node %q not found in workflow %s", triggerNodeID, workflow.ID)
		}

		if !node.IsTrigger() {
			return nil, fmt.Errorf("node %q is not a trigger node", triggerNodeID)
		}

		return []string{triggerNodeID}, nil
	}

	triggers := workflow.TriggerNodes()
	if len(triggers) == 0 {
		return nil, fmt.Errorf("workflow %s has no trigger nodes", workflow.ID)
	}

	seeds := make([]string, 0, len(triggers))
	for _, node := range triggers {
		seeds = append(seeds, node.ID)
	}

	sort.Strings(seeds)

	return seeds, nil
}

// runState is the per-run mutable state owned by one Execute call.
type runState struct {
	runner    *Runner
	graph     *graph
	workflow  *models.Workflow
	execution *models.ExecutionContext
	steps     protocol.StepRunner
	userID    string
	logger    *slog.Logger
	executed  int
}

// mainAllowed returns the node set the main traversal may execute: everything
// except loop bodies and error triggers.
func (s *runState) mainAllowed() map[string]bool {
	allowed := make(map[string]bool, len(s.graph.nodes))

	for id, node := range s.graph.nodes {
		if _, isBody := s.graph.loopBody[id]; isBody {
			continue
		}

		if node.Type == models.NodeTypeTriggerError {
			continue
		}

		allowed[id] = true
	}

	return allowed
}

// nodeFailure carries a node-level failure up through a traversal.
type nodeFailure struct {
	nodeID    string
	err       error
	cancelled bool
}

// traversal walks one eligible-node frontier to exhaustion. The main run, each
// loop iteration, and the error-trigger path are separate traversals sharing
// the run state.
type traversal struct {
	state     *runState
	execution *models.ExecutionContext
	allowed   map[string]bool
	completed map[string]bool
	skipped   map[string]bool
	branches  map[string]string
	outputs   map[string]map[string]any
}

func (s *runState) newTraversal(execution *models.ExecutionContext, allowed map[string]bool) *traversal {
	return &traversal{
		state:     s,
		execution: execution,
		allowed:   allowed,
		completed: make(map[string]bool),
		skipped:   make(map[string]bool),
		branches:  make(map[string]string),
		outputs:   make(map[string]map[string]any),
	}
}

// run executes eligible nodes one at a time, lowest node ID first, until no
// node is eligible. Sequential dispatch keeps runs deterministic; concurrency
// lives at the run level, not inside one run.
func (t *traversal) run(ctx context.Context, seeds []string) *nodeFailure {
	seedSet := make(map[string]bool, len(seeds))
	for _, id := range seeds {
		seedSet[id] = true
	}

	for {
		if err := ctx.Err(); err != nil {
			return &nodeFailure{err: err, cancelled: true}
		}

		nodeID, ok := t.nextEligible(seedSet)
		if !ok {
			return nil
		}

		node := t.state.graph.nodes[nodeID]

		if node.Disabled {
			// Disabled nodes pass through without executing.
			t.completed[nodeID] = true
			t.state.logger.InfoContext(ctx, "Skipping disabled node", "node_id", nodeID)

			continue
		}

		if failure := t.state.executeNode(ctx, node, t); failure != nil {
			return failure
		}
	}
}

// nextEligible scans for runnable nodes and resolves skips. Among all
// currently eligible nodes the lowest ID wins.
func (t *traversal) nextEligible(seeds map[string]bool) (string, bool) {
	var eligible []string

	for id := range t.allowed {
		if t.completed[id] || t.skipped[id] {
			continue
		}

		if seeds[id] {
			eligible = append(eligible, id)

			continue
		}

		preds := t.inScopeIncoming(id)
		if len(preds) == 0 {
			// Not reachable from a seed: never runs.
			t.skipped[id] = true

			continue
		}

		resolved, active := t.predecessorState(preds)
		if !resolved {
			continue
		}

		if !active {
			// Every inbound path was pruned by branch selection.
			t.skipped[id] = true

			continue
		}

		eligible = append(eligible, id)
	}

	if len(eligible) == 0 {
		return "", false
	}

	sort.Strings(eligible)

	return eligible[0], true
}

func (t *traversal) inScopeIncoming(nodeID string) []*models.Edge {
	var preds []*models.Edge

	for _, edge := range t.state.graph.incoming[nodeID] {
		if t.allowed[edge.Source] {
			preds = append(preds, edge)
		}
	}

	return preds
}

// predecessorState reports whether all in-scope predecessors finished, and
// whether at least one taken edge leads here. Merge nodes wait for all
// branches by the same rule: every predecessor must resolve first.
func (t *traversal) predecessorState(preds []*models.Edge) (resolved, active bool) {
	for _, edge := range preds {
		if !t.completed[edge.Source] && !t.skipped[edge.Source] {
			return false, false
		}
	}

	for _, edge := range preds {
		if !t.completed[edge.Source] {
			continue
		}

		sourceType := t.state.graph.nodes[edge.Source].Type
		if edgeTaken(edge, sourceType, t.branches[edge.Source]) {
			return true, true
		}
	}

	return true, false
}

// activeInputs collects the outputs of completed predecessors whose edges were
// taken, keyed by source node ID. Injected into merge nodes as their inputs.
func (t *traversal) activeInputs(nodeID string) map[string]any {
	inputs := make(map[string]any)

	for _, edge := range t.inScopeIncoming(nodeID) {
		if !t.completed[edge.Source] {
			continue
		}

		sourceType := t.state.graph.nodes[edge.Source].Type
		if !edgeTaken(edge, sourceType, t.branches[edge.Source]) {
			continue
		}

		output := t.outputs[edge.Source]
		if len(output) == 1 {
			for _, value := range output {
				inputs[edge.Source] = value
			}
		} else if len(output) > 0 {
			inputs[edge.Source] = output
		}
	}

	return inputs
}

// executeNode dispatches one node, records its lifecycle, merges its output
// into the traversal's context, and handles loop fan-out.
func (s *runState) executeNode(ctx context.Context, node *models.Node, t *traversal) *nodeFailure {
	ctx, span := otelhelper.StartSpan(ctx, s.runner.tracer, "workflow.node",
		attribute.String(otelhelper.NodeIDKey, node.ID),
		attribute.String(otelhelper.NodeTypeKey, node.Type),
	)
	defer span.End()

	startedAt := time.Now().UTC()

	record := &models.ExecutionRecord{
		ExecutionID: s.execution.ID,
		WorkflowID:  s.workflow.ID,
		NodeID:      node.ID,
		NodeType:    node.Type,
		Status:      models.NodeStatusLoading,
		StartedAt:   startedAt,
	}
	s.saveRecord(ctx, record)

	output, branch, err := s.dispatch(ctx, node, t)

	finishedAt := time.Now().UTC()
	record.FinishedAt = &finishedAt

	if err != nil {
		record.Status = models.NodeStatusError
		record.Error = err.Error()
		s.saveRecord(ctx, record)

		otelhelper.SetError(span, err)
		s.logger.ErrorContext(ctx, "Node execution failed",
			"node_id", node.ID, "node_type", node.Type, "error", err)

		// A failure while the run context is cancelled (for example inside a
		// loop iteration) ends the run as cancelled, not failed.
		return &nodeFailure{nodeID: node.ID, err: err, cancelled: ctx.Err() != nil}
	}

	record.Status = models.NodeStatusSuccess
	record.Output = output
	s.saveRecord(ctx, record)

	s.executed++
	t.completed[node.ID] = true
	t.branches[node.ID] = branch
	t.outputs[node.ID] = output

	// Context writes become visible to successors only now, after success.
	for variable, value := range output {
		t.execution.Set(variable, value)
	}

	return nil
}

// dispatch resolves the node's configuration, runs its executor, and applies
// loop iteration semantics. Returns the output map (branch key stripped) and
// the branch discriminator, if any.
func (s *runState) dispatch(ctx context.Context, node *models.Node, t *traversal) (map[string]any, string, error) {
	executor, err := s.runner.registry.CreateExecutor(node.Type, node.ID)
	if err != nil {
		return nil, "", err
	}

	resolved := template.ResolveConfig(node.Data, t.execution.Values)

	if node.Type == models.NodeTypeMerge {
		resolved["inputs"] = t.activeInputs(node.ID)
	}

	input := protocol.ExecutionInput{
		NodeID:  node.ID,
		UserID:  s.userID,
		Data:    resolved,
		Context: t.execution.Values,
		Steps:   s.steps,
		Publish: s.publishFunc(ctx, node.Type),
	}

	output, err := executor.Execute(ctx, input)
	if err != nil {
		return nil, "", err
	}

	branch, _ := output[models.BranchKey].(string)
	delete(output, models.BranchKey)

	if node.Type == models.NodeTypeLoop {
		if err := s.runLoop(ctx, node, t, output); err != nil {
			return nil, "", err
		}
	}

	return output, branch, nil
}

// runLoop executes the loop's body subgraph once per item against a context
// fork carrying currentItem/index, collecting each iteration's outputs into
// the loop's results array.
func (s *runState) runLoop(ctx context.Context, node *models.Node, t *traversal, output map[string]any) error {
	variable, loopValue := soleEntry(output)

	items, _ := loopValue["items"].([]any)
	onError, _ := loopValue["on_error"].(string)

	allowed := make(map[string]bool)

	for id, owner := range s.graph.loopBody {
		if owner == node.ID {
			allowed[id] = true
		}
	}

	entries := s.graph.bodyEntries(node.ID)
	results := make([]any, 0, len(items))

	for index, item := range items {
		fork := t.execution.Fork(map[string]any{
			"currentItem": item,
			"index":       index,
		})

		iteration := s.newTraversal(fork, allowed)

		failure := iteration.run(ctx, entries)
		if failure != nil {
			if failure.cancelled {
				return failure.err
			}

			if onError == "abort" {
				return fmt.Errorf("loop iteration %d failed at node %s: %w", index, failure.nodeID, failure.err)
			}

			s.logger.WarnContext(ctx, "Loop iteration failed, continuing",
				"loop_node_id", node.ID, "index", index,
				"failed_node_id", failure.nodeID, "error", failure.err)

			results = append(results, map[string]any{
				"index": index,
				"error": failure.err.Error(),
			})

			continue
		}

		iterationOutput := make(map[string]any)
		for _, nodeOutput := range iteration.outputs {
			for key, value := range nodeOutput {
				iterationOutput[key] = value
			}
		}

		results = append(results, iterationOutput)
	}

	loopValue["results"] = results
	output[variable] = loopValue

	return nil
}

// activateErrorTriggers runs the failure-handling branch for a failed node.
// Returns true when an error-trigger path existed and completed cleanly.
func (s *runState) activateErrorTriggers(ctx context.Context, failure *nodeFailure) bool {
	triggers := s.workflow.ErrorTriggerNodes()
	if len(triggers) == 0 {
		return false
	}

	errorEvent := map[string]any{
		"nodeId":    failure.nodeID,
		"message":   failure.err.Error(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	fork := s.execution.Fork(map[string]any{"error": errorEvent})

	allowed := make(map[string]bool)
	seeds := make([]string, 0, len(triggers))

	for _, trigger := range triggers {
		seeds = append(seeds, trigger.ID)
		s.markReachable(trigger.ID, allowed)
	}

	sort.Strings(seeds)

	handler := s.newTraversal(fork, allowed)
	if handlerFailure := handler.run(ctx, seeds); handlerFailure != nil {
		s.logger.ErrorContext(ctx, "Error-trigger path failed",
			"failed_node_id", handlerFailure.nodeID, "error", handlerFailure.err)

		return false
	}

	return true
}

func (s *runState) markReachable(nodeID string, allowed map[string]bool) {
	if allowed[nodeID] {
		return
	}

	allowed[nodeID] = true

	for _, edge := range s.graph.outgoing[nodeID] {
		s.markReachable(edge.Target, allowed)
	}
}

func (s *runState) publishFunc(ctx context.Context, nodeType string) protocol.PublishFunc {
	return func(nodeID string, nodeStatus models.NodeStatus, message string) {
		if s.runner.status == nil {
			return
		}

		s.runner.status.Publish(ctx, nodeType, status.Event{
			NodeID:  nodeID,
			Status:  nodeStatus,
			Message: message,
		})
	}
}

func (s *runState) saveRecord(ctx context.Context, record *models.ExecutionRecord) {
	if s.runner.records == nil {
		return
	}

	if err := s.runner.records.SaveExecutionRecord(ctx, record); err != nil {
		s.logger.WarnContext(ctx, "Failed to save execution record",
			"node_id", record.NodeID, "error", err)
	}
}

func soleEntry(output map[string]any) (string, map[string]any) {
	for key, value := range output {
		if m, ok := value.(map[string]any); ok {
			return key, m
		}
	}

	return "", map[string]any{}
}
