// Package harness runs single nodes synchronously outside a workflow. The
// editor's "test node" feature and executor unit tests both use it: template
// resolution, durable steps, and status publishing all behave as in a real
// run, but everything happens in-process against an in-memory step store.
package harness

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/durable"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/models"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/protocol"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/registry"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/template"
)

// Result captures one harness invocation: the executor's output map plus
// every status event it published, in order.
type Result struct {
	Output map[string]any
	Events []models.NodeResult
}

// Harness executes single nodes against a mock context.
type Harness struct {
	registry *registry.Registry
	logger   *slog.Logger
	policy   durable.RetryPolicy
}

// Option tweaks harness behavior.
type Option func(*Harness)

// WithRetryPolicy overrides the step retry policy. Tests exercising failure
// paths usually want a single attempt with no delay.
func WithRetryPolicy(policy durable.RetryPolicy) Option {
	return func(h *Harness) {
		h.policy = policy
	}
}

// WithLogger overrides the discard logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = logger
	}
}

func New(reg *registry.Registry, opts ...Option) *Harness {
	h := &Harness{
		registry: reg,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		policy:   durable.DefaultRetryPolicy(),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// TestNode resolves data against mockContext and executes the node type
// synchronously. The fresh in-memory step store means every call runs the
// node's side effects exactly once.
func (h *Harness) TestNode(ctx context.Context, nodeType string, data, mockContext map[string]any) (Result, error) {
	nodeID := "test-" + uuid.New().String()[:8]

	executor, err := h.registry.CreateExecutor(nodeType, nodeID)
	if err != nil {
		return Result{}, err
	}

	resolved := template.ResolveConfig(data, mockContext)

	var (
		mu     sync.Mutex
		events []models.NodeResult
	)

	steps := durable.NewRunner(uuid.New().String(), durable.NewMemoryStore(), h.policy, h.logger)

	input := protocol.ExecutionInput{
		NodeID:  nodeID,
		Data:    resolved,
		Context: mockContext,
		Steps:   steps,
		Publish: func(id string, status models.NodeStatus, message string) {
			mu.Lock()
			defer mu.Unlock()

			events = append(events, models.NodeResult{
				NodeID:    id,
				Status:    status,
				Error:     message,
				Timestamp: time.Now().UTC(),
			})
		},
	}

	output, err := executor.Execute(ctx, input)

	mu.Lock()
	defer mu.Unlock()

	return Result{Output: output, Events: events}, err
}

// MockContext builds a sample variable space for a node type from the
// registry's output field schemas, for testing nodes without real upstream
// data.
func (h *Harness) MockContext(nodeType string) (map[string]any, error) {
	return h.registry.MockContext(nodeType)
}
