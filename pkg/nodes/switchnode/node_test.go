package switchnode

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/models"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/protocol"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/testutil"
)

func TestSwitchStringValue(t *testing.T) {
	t.Parallel()

	executor := NewExecutor("switch-1")

	output, err := executor.Execute(context.Background(), testutil.CreateExecutionInput("switch-1", map[string]any{
		"value": "premium",
	}, nil))

	require.NoError(t, err)
	assert.Equal(t, "premium", output[models.BranchKey])
}

func TestSwitchStringifiesValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		value    any
		expected string
	}{
		{"float", float64(3), "3"},
		{"decimal", 2.5, "2.5"},
		{"bool", true, "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			executor := NewExecutor("switch-1")

			output, err := executor.Execute(context.Background(), testutil.CreateExecutionInput("switch-1", map[string]any{
				"value": tt.value,
			}, nil))

			require.NoError(t, err)
			assert.Equal(t, tt.expected, output[models.BranchKey])
		})
	}
}

func TestSwitchFallsBackToDefault(t *testing.T) {
	t.Parallel()

	executor := NewExecutor("switch-1")

	output, err := executor.Execute(context.Background(), testutil.CreateExecutionInput("switch-1", map[string]any{
		"value": "bronze",
		"cases": []any{"silver", "gold"},
	}, nil))

	require.NoError(t, err)
	assert.Equal(t, DefaultBranch, output[models.BranchKey])
}

func TestSwitchMatchesCase(t *testing.T) {
	t.Parallel()

	executor := NewExecutor("switch-1")

	output, err := executor.Execute(context.Background(), testutil.CreateExecutionInput("switch-1", map[string]any{
		"value": "gold",
		"cases": []any{"silver", "gold"},
	}, nil))

	require.NoError(t, err)
	assert.Equal(t, "gold", output[models.BranchKey])
}

func TestSwitchMissingValue(t *testing.T) {
	t.Parallel()

	executor := NewExecutor("switch-1")
	recorder := &testutil.EventRecorder{}

	_, err := executor.Execute(context.Background(), testutil.CreateExecutionInput("switch-1", map[string]any{}, recorder))

	require.Error(t, err)
	assert.True(t, protocol.IsNonRetriable(err))
	assert.Equal(t, []models.NodeStatus{models.NodeStatusLoading, models.NodeStatusError}, recorder.Statuses())
}
