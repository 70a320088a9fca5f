// Package persistence provides the data storage abstraction for workflows,
// execution records, and committed step results.
package persistence

import (
	"context"
	"encoding/json"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/models"
)

// WorkflowRepository stores workflow definitions.
type WorkflowRepository interface {
	Workflows(ctx context.Context) ([]*models.Workflow, error)
	WorkflowByID(ctx context.Context, id string) (*models.Workflow, error)
	SaveWorkflow(ctx context.Context, workflow *models.Workflow) error
	DeleteWorkflow(ctx context.Context, id string) error
}

// ExecutionRepository stores the per-run, per-node status records.
type ExecutionRepository interface {
	SaveExecutionRecord(ctx context.Context, record *models.ExecutionRecord) error
	ExecutionRecords(ctx context.Context, executionID string) ([]*models.ExecutionRecord, error)
}

// StepResultRepository stores committed durable step results. The method set
// deliberately matches durable.StepStore so any Persistence can back a step
// runner directly.
type StepResultRepository interface {
	Get(ctx context.Context, executionID, stepName string) (json.RawMessage, bool, error)
	Put(ctx context.Context, executionID, stepName string, result json.RawMessage) error
}

// Persistence is the full storage contract an implementation provides.
type Persistence interface {
	WorkflowRepository
	ExecutionRepository
	StepResultRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
