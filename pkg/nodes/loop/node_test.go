package loop

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/protocol"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/testutil"
)

func TestLoopExposesItems(t *testing.T) {
	t.Parallel()

	executor := NewExecutor("loop-1")

	output, err := executor.Execute(context.Background(), testutil.CreateExecutionInput("loop-1", map[string]any{
		"items": []any{"a", "b", "c"},
	}, nil))

	require.NoError(t, err)

	result := output[DefaultVariable].(map[string]any)
	assert.Equal(t, []any{"a", "b", "c"}, result["items"])
	assert.Equal(t, 3, result["count"])
	assert.Equal(t, OnErrorContinue, result["on_error"])
}

func TestLoopEmptyCollection(t *testing.T) {
	t.Parallel()

	executor := NewExecutor("loop-1")

	output, err := executor.Execute(context.Background(), testutil.CreateExecutionInput("loop-1", map[string]any{
		"items": []any{},
	}, nil))

	require.NoError(t, err)
	assert.Equal(t, 0, output[DefaultVariable].(map[string]any)["count"])
}

func TestLoopAbortPolicy(t *testing.T) {
	t.Parallel()

	executor := NewExecutor("loop-1")

	output, err := executor.Execute(context.Background(), testutil.CreateExecutionInput("loop-1", map[string]any{
		"items":    []any{1},
		"on_error": OnErrorAbort,
	}, nil))

	require.NoError(t, err)
	assert.Equal(t, OnErrorAbort, output[DefaultVariable].(map[string]any)["on_error"])
}

func TestLoopInvalidPolicy(t *testing.T) {
	t.Parallel()

	executor := NewExecutor("loop-1")

	_, err := executor.Execute(context.Background(), testutil.CreateExecutionInput("loop-1", map[string]any{
		"items":    []any{1},
		"on_error": "retry-forever",
	}, nil))

	require.Error(t, err)
	assert.True(t, protocol.IsNonRetriable(err))
}

func TestLoopMissingItems(t *testing.T) {
	t.Parallel()

	executor := NewExecutor("loop-1")

	_, err := executor.Execute(context.Background(), testutil.CreateExecutionInput("loop-1", map[string]any{}, nil))

	require.Error(t, err)
	assert.True(t, protocol.IsNonRetriable(err))
}

func TestLoopNonArrayItems(t *testing.T) {
	t.Parallel()

	executor := NewExecutor("loop-1")

	_, err := executor.Execute(context.Background(), testutil.CreateExecutionInput("loop-1", map[string]any{
		"items": "not-a-list",
	}, nil))

	require.Error(t, err)
	assert.True(t, protocol.IsNonRetriable(err))
}
