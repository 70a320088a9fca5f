package durable

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/protocol"
)

// RetryPolicy bounds how transient step failures are retried.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
}

// DefaultRetryPolicy returns the policy applied to executor steps.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     10 * time.Second,
	}
}

// Runner implements protocol.StepRunner for one execution. Results are
// memoized in the StepStore keyed by (executionID, stepName); committed
// steps return their prior result without re-running fn.
type Runner struct {
	executionID string
	store       StepStore
	policy      RetryPolicy
	logger      *slog.Logger
}

// NewRunner creates a step runner scoped to one execution.
func NewRunner(executionID string, store StepStore, policy RetryPolicy, logger *slog.Logger) *Runner {
	return &Runner{
		executionID: executionID,
		store:       store,
		policy:      policy,
		logger:      logger.With("module", "durable", "execution_id", executionID),
	}
}

// Run executes fn once, retrying transient failures with bounded backoff. A
// non-retriable error fails the step immediately and permanently.
func (r *Runner) Run(ctx context.Context, stepName string, fn func(ctx context.Context) (any, error)) (any, error) {
	if committed, ok, err := r.store.Get(ctx, r.executionID, stepName); err == nil && ok {
		var result any
		if err := json.Unmarshal(committed, &result); err != nil {
			return nil, fmt.Errorf("corrupt committed result for step %s: %w", stepName, err)
		}

		r.logger.DebugContext(ctx, "Step already committed, returning memoized result", "step", stepName)

		return result, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read step store for %s: %w", stepName, err)
	}

	var lastErr error

	delay := r.policy.InitialDelay

	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}

			delay = time.Duration(float64(delay) * r.policy.Multiplier)
			if delay > r.policy.MaxDelay {
				delay = r.policy.MaxDelay
			}
		}

		result, err := fn(ctx)
		if err == nil {
			if err := r.commit(ctx, stepName, result); err != nil {
				return nil, err
			}

			return result, nil
		}

		if protocol.IsNonRetriable(err) {
			return nil, err
		}

		lastErr = err

		r.logger.WarnContext(ctx, "Step attempt failed",
			"step", stepName, "attempt", attempt, "error", err)
	}

	return nil, fmt.Errorf("step %s failed after %d attempts: %w", stepName, r.policy.MaxAttempts, lastErr)
}

// Sleep is a durable timed suspension: the wake deadline is committed on
// first entry, so a resumed run sleeps only the remainder instead of
// restarting the full duration.
func (r *Runner) Sleep(ctx context.Context, stepName string, d time.Duration) error {
	wake := time.Now().UTC().Add(d)

	if committed, ok, err := r.store.Get(ctx, r.executionID, stepName); err != nil {
		return fmt.Errorf("failed to read step store for %s: %w", stepName, err)
	} else if ok {
		var stored string
		if err := json.Unmarshal(committed, &stored); err != nil {
			return fmt.Errorf("corrupt committed deadline for step %s: %w", stepName, err)
		}

		parsed, err := time.Parse(time.RFC3339Nano, stored)
		if err != nil {
			return fmt.Errorf("corrupt committed deadline for step %s: %w", stepName, err)
		}

		wake = parsed
	} else {
		payload, err := json.Marshal(wake.Format(time.RFC3339Nano))
		if err != nil {
			return err
		}

		if err := r.store.Put(ctx, r.executionID, stepName, payload); err != nil {
			return fmt.Errorf("failed to commit deadline for step %s: %w", stepName, err)
		}
	}

	remaining := time.Until(wake)
	if remaining <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(remaining):
		return nil
	}
}

func (r *Runner) commit(ctx context.Context, stepName string, result any) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result for step %s: %w", stepName, err)
	}

	if err := r.store.Put(ctx, r.executionID, stepName, payload); err != nil {
		return fmt.Errorf("failed to commit step %s: %w", stepName, err)
	}

	return nil
}
