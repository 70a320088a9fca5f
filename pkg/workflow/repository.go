package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/models"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/persistence"
)

// ErrInvalidWorkflow marks definitions rejected by validation, as opposed to
// storage failures.
var ErrInvalidWorkflow = errors.New("invalid workflow")

// Repository wraps workflow storage with validation and lifecycle rules.
type Repository struct {
	persistence persistence.WorkflowRepository
	validate    *validator.Validate
}

func NewRepository(p persistence.WorkflowRepository) *Repository {
	return &Repository{
		persistence: p,
		validate:    validator.New(),
	}
}

// FetchAll returns every stored workflow.
func (r *Repository) FetchAll(ctx context.Context) ([]*models.Workflow, error) {
	workflows, err := r.persistence.Workflows(ctx)
	if err != nil {
		return nil, err
	}

	return workflows, nil
}

// FetchByID returns one workflow.
func (r *Repository) FetchByID(ctx context.Context, id string) (*models.Workflow, error) {
	return r.persistence.WorkflowByID(ctx, id)
}

// FetchPublished returns the published workflows, the only ones runs may be
// started against.
func (r *Repository) FetchPublished(ctx context.Context) ([]*models.Workflow, error) {
	workflows, err := r.persistence.Workflows(ctx)
	if err != nil {
		return nil, err
	}

	published := make([]*models.Workflow, 0, len(workflows))

	for _, workflow := range workflows {
		if workflow.Status == models.WorkflowStatusPublished {
			published = append(published, workflow)
		}
	}

	return published, nil
}

// Create validates and stores a new workflow. New workflows start as drafts
// unless a status is supplied.
func (r *Repository) Create(ctx context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	if workflow.ID == "" {
		workflow.ID = uuid.New().String()
	}

	if workflow.Status == "" {
		workflow.Status = models.WorkflowStatusDraft
	}

	now := time.Now().UTC()
	workflow.CreatedAt = now
	workflow.UpdatedAt = now

	if err := r.validateWorkflow(workflow); err != nil {
		return nil, err
	}

	if err := r.persistence.SaveWorkflow(ctx, workflow); err != nil {
		return nil, err
	}

	return workflow, nil
}

// Update validates and replaces an existing workflow definition.
func (r *Repository) Update(ctx context.Context, id string, workflow *models.Workflow) (*models.Workflow, error) {
	existing, err := r.persistence.WorkflowByID(ctx, id)
	if err != nil {
		return nil, err
	}

	workflow.ID = id
	workflow.CreatedAt = existing.CreatedAt
	workflow.UpdatedAt = time.Now().UTC()

	if err := r.validateWorkflow(workflow); err != nil {
		return nil, err
	}

	if err := r.persistence.SaveWorkflow(ctx, workflow); err != nil {
		return nil, err
	}

	return workflow, nil
}

// Publish transitions a draft workflow to published after re-validating it.
func (r *Repository) Publish(ctx context.Context, id string) (*models.Workflow, error) {
	workflow, err := r.persistence.WorkflowByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if workflow.Status == models.WorkflowStatusArchived {
		return nil, fmt.Errorf("%w: archived workflow %s cannot be published",
			persistence.ErrInvalidWorkflowStatus, id)
	}

	workflow.Status = models.WorkflowStatusPublished
	workflow.UpdatedAt = time.Now().UTC()

	if err := r.validateWorkflow(workflow); err != nil {
		return nil, err
	}

	if err := r.persistence.SaveWorkflow(ctx, workflow); err != nil {
		return nil, err
	}

	return workflow, nil
}

// Delete removes a workflow definition.
func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.persistence.DeleteWorkflow(ctx, id)
}

// validateWorkflow combines struct validation with graph-shape checks, so a
// workflow that stores cleanly is also one the runner can walk.
func (r *Repository) validateWorkflow(workflow *models.Workflow) error {
	if err := r.validate.Struct(workflow); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return fmt.Errorf("%w: %w", ErrInvalidWorkflow, validationErrors)
		}

		return err
	}

	if _, err := buildGraph(workflow); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidWorkflow, err)
	}

	if len(workflow.TriggerNodes()) == 0 && len(workflow.ErrorTriggerNodes()) == 0 {
		return fmt.Errorf("%w: workflow %s has no trigger nodes", ErrInvalidWorkflow, workflow.ID)
	}

	return nil
}
