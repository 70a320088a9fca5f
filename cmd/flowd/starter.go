package main

import (
	"context"
	"errors"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/eventbus"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/events"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/nodes/subworkflow"
)

// busStarter publishes execution requests without owning a runner. The API
// and scheduler processes use it; workers elsewhere pick the requests up.
type busStarter struct {
	workerID string
	bus      eventbus.EventBus
}

func (s *busStarter) RequestExecution(ctx context.Context, event events.ExecutionRequested) error {
	event.WorkerID = s.workerID

	return s.bus.Publish(ctx, event)
}

// deferredStarter breaks the registry/manager construction cycle: the
// registry needs a starter for subworkflow nodes before the manager that
// serves as one exists.
type deferredStarter struct {
	delegate subworkflow.Starter
}

func (d *deferredStarter) RequestExecution(ctx context.Context, event events.ExecutionRequested) error {
	if d.delegate == nil {
		return errors.New("execution starter is not ready")
	}

	return d.delegate.RequestExecution(ctx, event)
}
