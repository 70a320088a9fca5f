// Package file provides file-based persistence for workflows, execution
// records, and step results. It serves local development and tests; the
// layout is one JSON file per entity under the root directory.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/models"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/persistence"
)

const dirPerm = 0o755

// Persistence implements persistence.Persistence on the local file system.
type Persistence struct {
	root string

	// Serializes writers; reads of distinct files are safe but record
	// appends share files per execution.
	mu sync.Mutex
}

// NewPersistence creates a file persistence layer rooted at the given
// directory, accepting both plain paths and file:// URLs.
func NewPersistence(root string) (*Persistence, error) {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	for _, dir := range []string{"workflows", "executions", "steps"} {
		if err := os.MkdirAll(filepath.Join(cleanRoot, dir), dirPerm); err != nil {
			return nil, fmt.Errorf("failed to create %s directory: %w", dir, err)
		}
	}

	return &Persistence{root: cleanRoot}, nil
}

func (p *Persistence) Close(_ context.Context) error {
	return nil
}

func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); err != nil {
		return fmt.Errorf("persistence root unavailable: %w", err)
	}

	return nil
}

// Workflows returns all stored workflows.
func (p *Persistence) Workflows(_ context.Context) ([]*models.Workflow, error) {
	entries, err := os.ReadDir(filepath.Join(p.root, "workflows"))
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		workflow, err := p.readWorkflow(filepath.Join(p.root, "workflows", entry.Name()))
		if err != nil {
			return nil, err
		}

		workflows = append(workflows, workflow)
	}

	return workflows, nil
}

// WorkflowByID returns the stored workflow or ErrWorkflowNotFound.
func (p *Persistence) WorkflowByID(_ context.Context, id string) (*models.Workflow, error) {
	workflow, err := p.readWorkflow(p.workflowPath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, persistence.NewWorkflowError("WorkflowByID", id, persistence.ErrWorkflowNotFound)
	}

	return workflow, err
}

// SaveWorkflow writes the workflow definition, replacing any prior version.
func (p *Persistence) SaveWorkflow(_ context.Context, workflow *models.Workflow) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return writeJSON(p.workflowPath(workflow.ID), workflow)
}

// DeleteWorkflow removes the stored workflow definition.
func (p *Persistence) DeleteWorkflow(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := os.Remove(p.workflowPath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return persistence.NewWorkflowError("DeleteWorkflow", id, persistence.ErrWorkflowNotFound)
	}

	return err
}

// SaveExecutionRecord appends or replaces the record for the execution's
// node. The records of one execution share a single file.
func (p *Persistence) SaveExecutionRecord(_ context.Context, record *models.ExecutionRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	path := p.executionPath(record.ExecutionID)

	records, err := readRecords(path)
	if err != nil {
		return err
	}

	replaced := false

	for i, existing := range records {
		if existing.NodeID == record.NodeID && existing.StartedAt.Equal(record.StartedAt) {
			records[i] = record
			replaced = true

			break
		}
	}

	if !replaced {
		records = append(records, record)
	}

	return writeJSON(path, records)
}

// ExecutionRecords returns the status records of one execution in insertion
// order.
func (p *Persistence) ExecutionRecords(_ context.Context, executionID string) ([]*models.ExecutionRecord, error) {
	records, err := readRecords(p.executionPath(executionID))
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, persistence.ErrExecutionNotFound
	}

	return records, nil
}

// Get reads a committed step result.
func (p *Persistence) Get(_ context.Context, executionID, stepName string) (json.RawMessage, bool, error) {
	data, err := os.ReadFile(p.stepPath(executionID, stepName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("failed to read step result: %w", err)
	}

	return data, true, nil
}

// Put commits a step result.
func (p *Persistence) Put(_ context.Context, executionID, stepName string, result json.RawMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	dir := filepath.Join(p.root, "steps", sanitize(executionID))
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("failed to create step directory: %w", err)
	}

	if err := os.WriteFile(p.stepPath(executionID, stepName), result, 0o644); err != nil {
		return fmt.Errorf("failed to write step result: %w", err)
	}

	return nil
}

func (p *Persistence) workflowPath(id string) string {
	return filepath.Join(p.root, "workflows", sanitize(id)+".json")
}

func (p *Persistence) executionPath(executionID string) string {
	return filepath.Join(p.root, "executions", sanitize(executionID)+".json")
}

func (p *Persistence) stepPath(executionID, stepName string) string {
	return filepath.Join(p.root, "steps", sanitize(executionID), sanitize(stepName)+".json")
}

func (p *Persistence) readWorkflow(path string) (*models.Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var workflow models.Workflow
	if err := json.Unmarshal(data, &workflow); err != nil {
		return nil, fmt.Errorf("corrupt workflow file %s: %w", path, err)
	}

	return &workflow, nil
}

func readRecords(path string) ([]*models.ExecutionRecord, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read execution records: %w", err)
	}

	var records []*models.ExecutionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("corrupt execution file %s: %w", path, err)
	}

	return records, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

// sanitize keeps IDs usable as file names.
func sanitize(id string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_")

	return replacer.Replace(id)
}
