// Package durable provides named, memoized, retryable units of work keyed by
// (execution, step). A step whose result is already committed is never
// re-executed, which makes multi-step executors safe to resume after an
// interrupted run.
package durable

import (
	"context"
	"encoding/json"
	"sync"
)

// StepStore persists committed step results. Implementations must return the
// exact payload that was put for a (executionID, stepName) pair.
type StepStore interface {
	Get(ctx context.Context, executionID, stepName string) (json.RawMessage, bool, error)
	Put(ctx context.Context, executionID, stepName string, result json.RawMessage) error
}

// MemoryStore is an in-process StepStore used by tests and the single-node
// test harness. Nothing survives a restart, so it gives memoization within a
// run but no durability.
type MemoryStore struct {
	mu      sync.RWMutex
	results map[string]json.RawMessage
}

// NewMemoryStore creates an empty in-memory step store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		results: make(map[string]json.RawMessage),
	}
}

func (s *MemoryStore) Get(_ context.Context, executionID, stepName string) (json.RawMessage, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, ok := s.results[stepKey(executionID, stepName)]

	return result, ok, nil
}

func (s *MemoryStore) Put(_ context.Context, executionID, stepName string, result json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results[stepKey(executionID, stepName)] = result

	return nil
}

func stepKey(executionID, stepName string) string {
	return executionID + ":" + stepName
}
