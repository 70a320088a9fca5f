package condition

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/models"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/protocol"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/testutil"
)

func TestConditionTrueBranch(t *testing.T) {
	t.Parallel()

	executor := NewExecutor("cond-1")
	recorder := &testutil.EventRecorder{}

	output, err := executor.Execute(context.Background(), testutil.CreateExecutionInput("cond-1", map[string]any{
		"condition": true,
	}, recorder))

	require.NoError(t, err)
	assert.Equal(t, BranchTrue, output[models.BranchKey])

	result, ok := output[DefaultVariable].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, result["result"])

	assert.Equal(t, []models.NodeStatus{models.NodeStatusLoading, models.NodeStatusSuccess}, recorder.Statuses())
}

func TestConditionFalseBranch(t *testing.T) {
	t.Parallel()

	executor := NewExecutor("cond-1")

	output, err := executor.Execute(context.Background(), testutil.CreateExecutionInput("cond-1", map[string]any{
		"condition": "",
	}, nil))

	require.NoError(t, err)
	assert.Equal(t, BranchFalse, output[models.BranchKey])
}

func TestConditionTruthiness(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		value    any
		expected string
	}{
		{"non-empty string", "yes", BranchTrue},
		{"string false", "false", BranchFalse},
		{"string true", "true", BranchTrue},
		{"zero", float64(0), BranchFalse},
		{"non-zero", float64(3), BranchTrue},
		{"empty list", []any{}, BranchFalse},
		{"non-empty list", []any{1}, BranchTrue},
		{"empty map", map[string]any{}, BranchFalse},
		{"nil", nil, BranchFalse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			executor := NewExecutor("cond-1")

			output, err := executor.Execute(context.Background(), testutil.CreateExecutionInput("cond-1", map[string]any{
				"condition": tt.value,
			}, nil))

			require.NoError(t, err)
			assert.Equal(t, tt.expected, output[models.BranchKey])
		})
	}
}

func TestConditionMissingField(t *testing.T) {
	t.Parallel()

	executor := NewExecutor("cond-1")
	recorder := &testutil.EventRecorder{}

	_, err := executor.Execute(context.Background(), testutil.CreateExecutionInput("cond-1", map[string]any{}, recorder))

	require.Error(t, err)
	assert.True(t, protocol.IsNonRetriable(err))
	assert.Equal(t, []models.NodeStatus{models.NodeStatusLoading, models.NodeStatusError}, recorder.Statuses())
}

func TestConditionCustomVariable(t *testing.T) {
	t.Parallel()

	executor := NewExecutor("cond-1")

	output, err := executor.Execute(context.Background(), testutil.CreateExecutionInput("cond-1", map[string]any{
		"condition": true,
		"variable":  "gate",
	}, nil))

	require.NoError(t, err)
	assert.Contains(t, output, "gate")
	assert.NotContains(t, output, DefaultVariable)
}
