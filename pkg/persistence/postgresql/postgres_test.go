package postgresql_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/models"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/persistence"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/persistence/postgresql"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/testutil"
)

var postgresContainer *postgres.PostgresContainer

func dropDb(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	for _, table := range []string{"step_results", "execution_records", "workflows", "schema_migrations"} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	err = db.Close()
	require.NoError(t, err)
}

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("flows_test"),
			postgres.WithUsername("flows"),
			postgres.WithPassword("flows"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDb(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropDb(ctx, t, databaseURL)

		err = p.Close(ctx)
		require.NoError(t, err)

		cancel()
	})

	return p, ctx
}

func TestWorkflowLifecycle(t *testing.T) {
	p, ctx := setupTestDB(t)

	workflow := testutil.CreateTestWorkflowWithNodes()
	workflow.CreatedAt = time.Now().UTC()
	workflow.UpdatedAt = workflow.CreatedAt

	require.NoError(t, p.SaveWorkflow(ctx, workflow))

	loaded, err := p.WorkflowByID(ctx, workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.Name, loaded.Name)
	require.Len(t, loaded.Nodes, 2)
	assert.Equal(t, models.NodeTypeTriggerWebhook, loaded.Nodes[0].Type)
	require.Len(t, loaded.Edges, 1)

	// Update keeps the same row.
	workflow.Name = "Renamed Workflow"
	workflow.UpdatedAt = time.Now().UTC()
	require.NoError(t, p.SaveWorkflow(ctx, workflow))

	loaded, err = p.WorkflowByID(ctx, workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed Workflow", loaded.Name)

	all, err := p.Workflows(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, p.DeleteWorkflow(ctx, workflow.ID))

	_, err = p.WorkflowByID(ctx, workflow.ID)
	assert.ErrorIs(t, err, persistence.ErrWorkflowNotFound)
}

func TestExecutionRecordLifecycle(t *testing.T) {
	p, ctx := setupTestDB(t)

	started := time.Now().UTC().Truncate(time.Microsecond)

	record := &models.ExecutionRecord{
		ExecutionID: "exec-1",
		WorkflowID:  "wf-1",
		NodeID:      "http-1",
		NodeType:    models.NodeTypeHTTPRequest,
		Status:      models.NodeStatusLoading,
		StartedAt:   started,
	}
	require.NoError(t, p.SaveExecutionRecord(ctx, record))

	finished := started.Add(time.Second)
	record.Status = models.NodeStatusSuccess
	record.Output = map[string]any{"status": float64(200)}
	record.FinishedAt = &finished
	require.NoError(t, p.SaveExecutionRecord(ctx, record))

	records, err := p.ExecutionRecords(ctx, "exec-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.NodeStatusSuccess, records[0].Status)
	assert.Equal(t, float64(200), records[0].Output["status"])
	require.NotNil(t, records[0].FinishedAt)

	_, err = p.ExecutionRecords(ctx, "missing")
	assert.ErrorIs(t, err, persistence.ErrExecutionNotFound)
}

func TestStepResultCommit(t *testing.T) {
	p, ctx := setupTestDB(t)

	_, ok, err := p.Get(ctx, "exec-1", "request-http-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, p.Put(ctx, "exec-1", "request-http-1", json.RawMessage(`{"status":200}`)))

	stored, ok, err := p.Get(ctx, "exec-1", "request-http-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"status":200}`, string(stored))

	// Commits are scoped per execution.
	_, ok, err = p.Get(ctx, "exec-2", "request-http-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHealthCheck(t *testing.T) {
	p, ctx := setupTestDB(t)

	assert.NoError(t, p.HealthCheck(ctx))
}
