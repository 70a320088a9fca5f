package workflow

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/models"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/persistence"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/testutil"
)

// memWorkflows is an in-memory WorkflowRepository for repository tests.
type memWorkflows struct {
	mu        sync.Mutex
	workflows map[string]*models.Workflow
}

func newMemWorkflows() *memWorkflows {
	return &memWorkflows{workflows: make(map[string]*models.Workflow)}
}

func (m *memWorkflows) Workflows(_ context.Context) ([]*models.Workflow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*models.Workflow, 0, len(m.workflows))
	for _, workflow := range m.workflows {
		out = append(out, workflow)
	}

	return out, nil
}

func (m *memWorkflows) WorkflowByID(_ context.Context, id string) (*models.Workflow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	workflow, ok := m.workflows[id]
	if !ok {
		return nil, persistence.NewWorkflowError("get", id, persistence.ErrWorkflowNotFound)
	}

	return workflow, nil
}

func (m *memWorkflows) SaveWorkflow(_ context.Context, workflow *models.Workflow) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *workflow
	m.workflows[workflow.ID] = &copied

	return nil
}

func (m *memWorkflows) DeleteWorkflow(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.workflows, id)

	return nil
}

func validWorkflow() *models.Workflow {
	workflow := testutil.CreateTestWorkflowWithNodes()
	workflow.ID = ""
	workflow.Status = ""

	return workflow
}

func TestRepositoryCreateAssignsDefaults(t *testing.T) {
	t.Parallel()

	repo := NewRepository(newMemWorkflows())

	created, err := repo.Create(context.Background(), validWorkflow())
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.WorkflowStatusDraft, created.Status)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	stored, err := repo.FetchByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Name, stored.Name)
}

func TestRepositoryCreateRejectsInvalidWorkflows(t *testing.T) {
	t.Parallel()

	repo := NewRepository(newMemWorkflows())

	t.Run("short name", func(t *testing.T) {
		t.Parallel()

		workflow := validWorkflow()
		workflow.Name = "ab"

		_, err := repo.Create(context.Background(), workflow)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Name")
	})

	t.Run("no nodes", func(t *testing.T) {
		t.Parallel()

		workflow := validWorkflow()
		workflow.Nodes = nil
		workflow.Edges = nil

		_, err := repo.Create(context.Background(), workflow)
		require.Error(t, err)
	})

	t.Run("no trigger nodes", func(t *testing.T) {
		t.Parallel()

		workflow := validWorkflow()
		workflow.Nodes = []*models.Node{testutil.CreateTestNode(testutil.WithID("only-log"))}
		workflow.Edges = nil

		_, err := repo.Create(context.Background(), workflow)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no trigger nodes")
	})

	t.Run("cyclic graph", func(t *testing.T) {
		t.Parallel()

		workflow := validWorkflow()
		workflow.Edges = append(workflow.Edges, testutil.CreateTestEdge("action-1", "trigger-1"))

		_, err := repo.Create(context.Background(), workflow)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cycle")
	})

	t.Run("edge to unknown node", func(t *testing.T) {
		t.Parallel()

		workflow := validWorkflow()
		workflow.Edges = append(workflow.Edges, testutil.CreateTestEdge("trigger-1", "ghost"))

		_, err := repo.Create(context.Background(), workflow)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown target node")
	})
}

func TestRepositoryUpdatePreservesCreatedAt(t *testing.T) {
	t.Parallel()

	repo := NewRepository(newMemWorkflows())

	created, err := repo.Create(context.Background(), validWorkflow())
	require.NoError(t, err)

	update := testutil.CreateTestWorkflowWithNodes()
	update.Name = "Renamed Workflow"
	update.Status = models.WorkflowStatusDraft

	updated, err := repo.Update(context.Background(), created.ID, update)
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Renamed Workflow", updated.Name)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt) || updated.UpdatedAt.Equal(updated.CreatedAt))
}

func TestRepositoryUpdateUnknownWorkflow(t *testing.T) {
	t.Parallel()

	repo := NewRepository(newMemWorkflows())

	_, err := repo.Update(context.Background(), "missing", testutil.CreateTestWorkflowWithNodes())
	require.Error(t, err)
	assert.True(t, persistence.IsNotFound(err))
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	t.Parallel()

	repo := NewRepository(newMemWorkflows())

	created, err := repo.Create(context.Background(), validWorkflow())
	require.NoError(t, err)
	require.Equal(t, models.WorkflowStatusDraft, created.Status)

	published, err := repo.Publish(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusPublished, published.Status)

	listed, err := repo.FetchPublished(context.Background())
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)
}

func TestRepositoryPublishRejectsArchived(t *testing.T) {
	t.Parallel()

	store := newMemWorkflows()
	repo := NewRepository(store)

	created, err := repo.Create(context.Background(), validWorkflow())
	require.NoError(t, err)

	archived, err := repo.FetchByID(context.Background(), created.ID)
	require.NoError(t, err)
	archived.Status = models.WorkflowStatusArchived
	require.NoError(t, store.SaveWorkflow(context.Background(), archived))

	_, err = repo.Publish(context.Background(), created.ID)
	require.ErrorIs(t, err, persistence.ErrInvalidWorkflowStatus)
}

func TestRepositoryDelete(t *testing.T) {
	t.Parallel()

	repo := NewRepository(newMemWorkflows())

	created, err := repo.Create(context.Background(), validWorkflow())
	require.NoError(t, err)

	require.NoError(t, repo.Delete(context.Background(), created.ID))

	_, err = repo.FetchByID(context.Background(), created.ID)
	require.Error(t, err)
	assert.True(t, persistence.IsNotFound(err))
}
