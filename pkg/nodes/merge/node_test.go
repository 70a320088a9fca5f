package merge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/testutil"
)

func TestMergeCombine(t *testing.T) {
	t.Parallel()

	executor := NewExecutor("merge-1")

	output, err := executor.Execute(context.Background(), testutil.CreateExecutionInput("merge-1", map[string]any{
		"inputs": map[string]any{
			"branch-a": map[string]any{"name": "Ada"},
			"branch-b": map[string]any{"score": float64(10)},
		},
	}, nil))

	require.NoError(t, err)

	result := output[DefaultVariable].(map[string]any)
	data := result["data"].(map[string]any)
	assert.Equal(t, "Ada", data["name"])
	assert.Equal(t, float64(10), data["score"])
	assert.Equal(t, []string{"branch-a", "branch-b"}, result["sources"])
}

func TestMergeCombineLaterSourceWins(t *testing.T) {
	t.Parallel()

	executor := NewExecutor("merge-1")

	output, err := executor.Execute(context.Background(), testutil.CreateExecutionInput("merge-1", map[string]any{
		"inputs": map[string]any{
			"a-first":  map[string]any{"value": "first"},
			"b-second": map[string]any{"value": "second"},
		},
	}, nil))

	require.NoError(t, err)

	data := output[DefaultVariable].(map[string]any)["data"].(map[string]any)
	assert.Equal(t, "second", data["value"])
}

func TestMergeAppend(t *testing.T) {
	t.Parallel()

	executor := NewExecutor("merge-1")

	output, err := executor.Execute(context.Background(), testutil.CreateExecutionInput("merge-1", map[string]any{
		"mode": ModeAppend,
		"inputs": map[string]any{
			"branch-b": map[string]any{"n": float64(2)},
			"branch-a": map[string]any{"n": float64(1)},
		},
	}, nil))

	require.NoError(t, err)

	items := output[DefaultVariable].(map[string]any)["data"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, float64(1), items[0].(map[string]any)["n"])
	assert.Equal(t, float64(2), items[1].(map[string]any)["n"])
}

func TestMergeNoInputs(t *testing.T) {
	t.Parallel()

	executor := NewExecutor("merge-1")

	output, err := executor.Execute(context.Background(), testutil.CreateExecutionInput("merge-1", map[string]any{}, nil))

	require.NoError(t, err)

	result := output[DefaultVariable].(map[string]any)
	assert.Empty(t, result["data"])
	assert.Empty(t, result["sources"])
}
