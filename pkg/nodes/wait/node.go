// Package wait provides the delay executor. The pause is a durable sleep, so
// a worker restart resumes from the committed wake deadline instead of
// restarting the full delay.
package wait

import (
	"context"
	"time"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/models"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/protocol"
)

const DefaultVariable = "wait"

type Executor struct {
	nodeID string
}

func NewExecutor(nodeID string) *Executor {
	return &Executor{nodeID: nodeID}
}

func (e *Executor) Type() string {
	return models.NodeTypeWait
}

func (e *Executor) Execute(ctx context.Context, input protocol.ExecutionInput) (map[string]any, error) {
	input.Publish(e.nodeID, models.NodeStatusLoading, "")

	duration, err := parseDuration(input.Data)
	if err != nil {
		input.Publish(e.nodeID, models.NodeStatusError, err.Error())

		return nil, err
	}

	if err := input.Steps.Sleep(ctx, "wait-"+e.nodeID, duration); err != nil {
		input.Publish(e.nodeID, models.NodeStatusError, err.Error())

		return nil, err
	}

	input.Publish(e.nodeID, models.NodeStatusSuccess, "")

	return map[string]any{
		input.Variable(DefaultVariable): map[string]any{
			"duration":  duration.String(),
			"resumedAt": time.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}

// parseDuration accepts either a Go duration string ("1h30m") or a numeric
// amount of seconds.
func parseDuration(data map[string]any) (time.Duration, error) {
	raw, ok := data["duration"]
	if !ok {
		return 0, protocol.MissingFieldError("duration")
	}

	switch v := raw.(type) {
	case string:
		duration, err := time.ParseDuration(v)
		if err != nil {
			return 0, protocol.NonRetriableErrorf("invalid duration %q: %v", v, err)
		}

		if duration < 0 {
			return 0, protocol.NonRetriableErrorf("duration must not be negative: %s", v)
		}

		return duration, nil
	case float64:
		if v < 0 {
			return 0, protocol.NonRetriableErrorf("duration must not be negative: %v", v)
		}

		return time.Duration(v * float64(time.Second)), nil
	case int:
		if v < 0 {
			return 0, protocol.NonRetriableErrorf("duration must not be negative: %v", v)
		}

		return time.Duration(v) * time.Second, nil
	default:
		return 0, protocol.NonRetriableErrorf("invalid duration type %T", raw)
	}
}
