package workflow

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/eventbus"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/events"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/models"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/nodes/subworkflow"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/testutil"
)

var _ subworkflow.Starter = (*Manager)(nil)

type managerFixture struct {
	manager  *Manager
	store    *memWorkflows
	repo     *Repository
	finished chan *events.ExecutionFinished
	failed   chan *events.ExecutionFailed
}

func newManagerFixture(t *testing.T) *managerFixture {
	t.Helper()

	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, watermill.NopLogger{})
	bus := eventbus.NewWatermillEventBus(pubSub, pubSub)

	store := newMemWorkflows()
	repo := NewRepository(store)
	runner := newTestRunner(testRegistry())

	f := &managerFixture{
		manager:  NewManager("worker-test", repo, runner, bus, testLogger()),
		store:    store,
		repo:     repo,
		finished: make(chan *events.ExecutionFinished, 1),
		failed:   make(chan *events.ExecutionFailed, 1),
	}

	bus.Handle(events.ExecutionFinishedEvent, func(_ context.Context, event any) error {
		f.finished <- event.(*events.ExecutionFinished)

		return nil
	})
	bus.Handle(events.ExecutionFailedEvent, func(_ context.Context, event any) error {
		f.failed <- event.(*events.ExecutionFailed)

		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	require.NoError(t, f.manager.Start(ctx))
	t.Cleanup(f.manager.Stop)

	return f
}

func (f *managerFixture) publishedWorkflow(t *testing.T, workflow *models.Workflow) *models.Workflow {
	t.Helper()

	created, err := f.repo.Create(context.Background(), workflow)
	require.NoError(t, err)

	published, err := f.repo.Publish(context.Background(), created.ID)
	require.NoError(t, err)

	return published
}

func TestManagerRunsRequestedExecution(t *testing.T) {
	t.Parallel()

	f := newManagerFixture(t)
	workflow := f.publishedWorkflow(t, validWorkflow())

	err := f.manager.RequestExecution(context.Background(), events.ExecutionRequested{
		BaseEvent:   events.NewBaseEvent(events.ExecutionRequestedEvent, workflow.ID),
		TriggerData: map[string]any{"source": "test"},
	})
	require.NoError(t, err)

	select {
	case finished := <-f.finished:
		assert.Equal(t, workflow.ID, finished.WorkflowID)
		assert.Equal(t, "worker-test", finished.WorkerID)
		assert.Equal(t, string(models.RunStatusSucceeded), finished.Status)
		assert.Equal(t, 2, finished.NodesExecuted)
		assert.NotEmpty(t, finished.ExecutionID)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for execution finished event")
	}
}

func TestManagerResumesRequestedExecution(t *testing.T) {
	t.Parallel()

	calls := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++

		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	f := newManagerFixture(t)

	wf := testutil.CreateTestWorkflow()
	wf.Nodes = []*models.Node{
		testutil.CreateTestNode(testutil.WithTriggerNode(), testutil.WithID("a-trigger")),
		testutil.CreateTestNode(testutil.WithID("b-call"), testutil.WithType(models.NodeTypeHTTPRequest), testutil.WithData(map[string]any{
			"url": server.URL,
		})),
	}
	wf.Edges = []*models.Edge{testutil.CreateTestEdge("a-trigger", "b-call")}

	workflow := f.publishedWorkflow(t, wf)

	request := events.ExecutionRequested{
		BaseEvent:   events.NewBaseEvent(events.ExecutionRequestedEvent, workflow.ID),
		ExecutionID: "exec-resume-bus",
	}

	require.NoError(t, f.manager.RequestExecution(context.Background(), request))

	select {
	case finished := <-f.finished:
		assert.Equal(t, "exec-resume-bus", finished.ExecutionID)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for first run")
	}

	// Re-requesting the same execution replays the committed HTTP step
	// instead of calling the server again.
	request.ID = "retry-" + request.ID

	require.NoError(t, f.manager.RequestExecution(context.Background(), request))

	select {
	case finished := <-f.finished:
		assert.Equal(t, "exec-resume-bus", finished.ExecutionID)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for resumed run")
	}

	assert.Equal(t, 1, calls)
}

func TestManagerReportsFailedRuns(t *testing.T) {
	t.Parallel()

	f := newManagerFixture(t)

	// The condition node is missing its condition field, so the run fails.
	broken := validWorkflow()
	broken.Nodes = []*models.Node{
		testutil.CreateTestNode(testutil.WithTriggerNode(), testutil.WithID("trigger-1")),
		testutil.CreateTestNode(testutil.WithID("check-1"), testutil.WithType(models.NodeTypeCondition), testutil.WithData(map[string]any{})),
	}
	broken.Edges = []*models.Edge{testutil.CreateTestEdge("trigger-1", "check-1")}

	workflow := f.publishedWorkflow(t, broken)

	err := f.manager.RequestExecution(context.Background(), events.ExecutionRequested{
		BaseEvent: events.NewBaseEvent(events.ExecutionRequestedEvent, workflow.ID),
	})
	require.NoError(t, err)

	select {
	case failed := <-f.failed:
		assert.Equal(t, workflow.ID, failed.WorkflowID)
		assert.Equal(t, "check-1", failed.NodeID)
		assert.Contains(t, failed.Error, "missing required field 'condition'")
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for execution failed event")
	}
}

func TestManagerReportsUnknownWorkflow(t *testing.T) {
	t.Parallel()

	f := newManagerFixture(t)

	err := f.manager.RequestExecution(context.Background(), events.ExecutionRequested{
		BaseEvent: events.NewBaseEvent(events.ExecutionRequestedEvent, "missing-workflow"),
	})
	require.NoError(t, err)

	select {
	case failed := <-f.failed:
		assert.Equal(t, "missing-workflow", failed.WorkflowID)
		assert.Contains(t, failed.Error, "not found")
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for execution failed event")
	}
}

func TestManagerIgnoresUnpublishedWorkflows(t *testing.T) {
	t.Parallel()

	f := newManagerFixture(t)

	draft, err := f.repo.Create(context.Background(), validWorkflow())
	require.NoError(t, err)
	require.Equal(t, models.WorkflowStatusDraft, draft.Status)

	err = f.manager.RequestExecution(context.Background(), events.ExecutionRequested{
		BaseEvent: events.NewBaseEvent(events.ExecutionRequestedEvent, draft.ID),
	})
	require.NoError(t, err)

	select {
	case finished := <-f.finished:
		t.Fatalf("unexpected finished event for draft workflow: %+v", finished)
	case failed := <-f.failed:
		t.Fatalf("unexpected failed event for draft workflow: %+v", failed)
	case <-time.After(300 * time.Millisecond):
		// Draft workflows are ignored.
	}
}
