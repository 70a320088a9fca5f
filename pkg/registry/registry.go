// Package registry maps node type tags to executor factories. The set of
// node types is closed and enumerable: adding a type means registering
// another factory, never altering dispatch logic.
package registry

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/models"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/protocol"
)

type Registry struct {
	logger    *slog.Logger
	factories map[string]protocol.ExecutorFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger.With("module", "registry"),
		factories: make(map[string]protocol.ExecutorFactory),
	}
}

// Register adds a factory under its type tag. Later registrations with the
// same tag win, which lets tests swap in fakes.
func (r *Registry) Register(factory protocol.ExecutorFactory) {
	r.factories[factory.ID()] = factory
}

// CreateExecutor builds an executor for the given node. Unknown types are an
// engine error, surfaced before dispatch.
func (r *Registry) CreateExecutor(nodeType, nodeID string) (protocol.Executor, error) {
	factory, ok := r.factories[nodeType]
	if !ok {
		return nil, fmt.Errorf("node type '%s' not registered", nodeType)
	}

	return factory.Create(nodeID)
}

// Factory returns the registered factory for a node type.
func (r *Registry) Factory(nodeType string) (protocol.ExecutorFactory, bool) {
	factory, ok := r.factories[nodeType]

	return factory, ok
}

// NodeTypes returns all registered type tags, sorted.
func (r *Registry) NodeTypes() []string {
	types := make([]string, 0, len(r.factories))
	for nodeType := range r.factories {
		types = append(types, nodeType)
	}

	sort.Strings(types)

	return types
}

// OutputFields returns the variable schema for a node type.
func (r *Registry) OutputFields(nodeType string) ([]models.VariableField, error) {
	factory, ok := r.factories[nodeType]
	if !ok {
		return nil, fmt.Errorf("node type '%s' not registered", nodeType)
	}

	return factory.OutputFields(), nil
}
