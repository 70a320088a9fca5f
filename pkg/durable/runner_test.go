package durable

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/protocol"
)

func testPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     5 * time.Millisecond,
	}
}

func TestRunner_CommitsAndMemoizes(t *testing.T) {
	store := NewMemoryStore()
	runner := NewRunner("exec-1", store, testPolicy(), slog.Default())

	calls := 0

	fn := func(_ context.Context) (any, error) {
		calls++

		return map[string]any{"status": "sent"}, nil
	}

	result, err := runner.Run(context.Background(), "send-node1", fn)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status": "sent"}, result)
	assert.Equal(t, 1, calls)

	// Second run with the same step name returns the committed result and
	// performs no new call.
	again, err := runner.Run(context.Background(), "send-node1", fn)
	require.NoError(t, err)
	assert.Equal(t, result, again)
	assert.Equal(t, 1, calls)
}

func TestRunner_ResumeAcrossRunnerInstances(t *testing.T) {
	store := NewMemoryStore()

	first := NewRunner("exec-1", store, testPolicy(), slog.Default())
	_, err := first.Run(context.Background(), "fetch-node1", func(_ context.Context) (any, error) {
		return "credential", nil
	})
	require.NoError(t, err)

	// A resumed execution builds a fresh runner over the same store.
	resumed := NewRunner("exec-1", store, testPolicy(), slog.Default())

	result, err := resumed.Run(context.Background(), "fetch-node1", func(_ context.Context) (any, error) {
		t.Fatal("committed step must not re-execute")

		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "credential", result)
}

func TestRunner_StepsAreScopedByExecution(t *testing.T) {
	store := NewMemoryStore()

	one := NewRunner("exec-1", store, testPolicy(), slog.Default())
	_, err := one.Run(context.Background(), "call-node1", func(_ context.Context) (any, error) {
		return "one", nil
	})
	require.NoError(t, err)

	two := NewRunner("exec-2", store, testPolicy(), slog.Default())
	result, err := two.Run(context.Background(), "call-node1", func(_ context.Context) (any, error) {
		return "two", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "two", result)
}

func TestRunner_RetriesTransientErrors(t *testing.T) {
	runner := NewRunner("exec-1", NewMemoryStore(), testPolicy(), slog.Default())

	calls := 0

	result, err := runner.Run(context.Background(), "flaky-node1", func(_ context.Context) (any, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("connection reset")
		}

		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)
}

func TestRunner_ExhaustsRetries(t *testing.T) {
	runner := NewRunner("exec-1", NewMemoryStore(), testPolicy(), slog.Default())

	calls := 0

	_, err := runner.Run(context.Background(), "down-node1", func(_ context.Context) (any, error) {
		calls++

		return nil, errors.New("timeout")
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestRunner_NonRetriableFailsImmediately(t *testing.T) {
	runner := NewRunner("exec-1", NewMemoryStore(), testPolicy(), slog.Default())

	calls := 0

	_, err := runner.Run(context.Background(), "bad-node1", func(_ context.Context) (any, error) {
		calls++

		return nil, protocol.MissingFieldError("url")
	})
	require.Error(t, err)
	assert.True(t, protocol.IsNonRetriable(err))
	assert.Equal(t, 1, calls)
}

func TestRunner_SleepCommitsDeadline(t *testing.T) {
	store := NewMemoryStore()
	runner := NewRunner("exec-1", store, testPolicy(), slog.Default())

	start := time.Now()
	require.NoError(t, runner.Sleep(context.Background(), "wait-node1", 10*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)

	// The deadline is already past on resume, so this returns immediately.
	resumed := NewRunner("exec-1", store, testPolicy(), slog.Default())
	start = time.Now()
	require.NoError(t, resumed.Sleep(context.Background(), "wait-node1", 10*time.Second))
	assert.Less(t, time.Since(start), time.Second)
}

func TestRunner_SleepHonoursCancellation(t *testing.T) {
	runner := NewRunner("exec-1", NewMemoryStore(), testPolicy(), slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runner.Sleep(ctx, "wait-node1", time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}
