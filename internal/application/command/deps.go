// Package command contains the write side of the accounting engine
// (CQRS - Commands). Every command validates against the in-memory
// snapshot, commits its mutation there, and only then emits the minimal
// persistence deltas for the external store. Persistence never decides a
// command's outcome.
package command

import (
	"context"
	"errors"
	"sync"

	"github.com/studioroll/attendance-hub/internal/application"
	"github.com/studioroll/attendance-hub/internal/domain/attendance"
	"github.com/studioroll/attendance-hub/internal/domain/shared"
	"github.com/studioroll/attendance-hub/internal/domain/student"
	"github.com/studioroll/attendance-hub/pkg/logger"
)

// Deps bundles the collaborators every command handler needs: the live
// snapshot, the two repositories, the event bus, and the logger.
type Deps struct {
	State    *application.State
	Students student.Repository
	Days     attendance.Repository
	Bus      shared.EventPublisher
	Logger   *logger.Logger
}

func (d Deps) log() *logger.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return logger.Default()
}

// publish sends a domain event after the in-memory commit. Event
// delivery is best effort; a failing subscriber is logged and never
// fails the command.
func (d Deps) publish(event shared.Event) {
	if d.Bus == nil {
		return
	}
	if err := d.Bus.Publish(event); err != nil {
		d.log().Warn("event publish failed",
			logger.String("event", string(event.EventType())),
			logger.Err(err),
		)
	}
}

// persistOp is one persistence delta of a command.
type persistOp func(ctx context.Context) error

// persist issues the deltas of one logical operation concurrently. The
// ops are independent (no ordering between them) and may fail
// independently; the joined error is handed to the caller. The local
// snapshot has already committed by the time persist runs, and nothing
// rolls it back on store failure - a documented gap of the design.
func persist(ctx context.Context, ops ...persistOp) error {
	if len(ops) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	errs := make([]error, len(ops))
	for i, op := range ops {
		wg.Add(1)
		go func(i int, op persistOp) {
			defer wg.Done()
			errs[i] = op(ctx)
		}(i, op)
	}
	wg.Wait()

	return errors.Join(errs...)
}
