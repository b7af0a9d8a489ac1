// Package jobs contains implementations of scheduled background jobs.
package jobs

import (
	"context"
	"time"

	"github.com/studioroll/attendance-hub/internal/application/command"
	"github.com/studioroll/attendance-hub/pkg/logger"
)

// ReconcileJob periodically compares the in-memory snapshot against the
// store and logs any drift. It never mutates either side; persistence
// failures are repaired by operators, not by the sweep.
type ReconcileJob struct {
	handler *command.ReconcileHandler
	logger  *logger.Logger
	timeout time.Duration
}

// NewReconcileJob creates a ReconcileJob. A non-positive timeout
// defaults to 30 seconds.
func NewReconcileJob(handler *command.ReconcileHandler, log *logger.Logger, timeout time.Duration) *ReconcileJob {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = logger.Default()
	}
	return &ReconcileJob{handler: handler, logger: log, timeout: timeout}
}

// Name implements scheduler.Job.
func (j *ReconcileJob) Name() string {
	return "reconcile_attendance"
}

// Run implements scheduler.Job.
func (j *ReconcileJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	result, err := j.handler.Handle(ctx, command.ReconcileCommand{})
	if err != nil {
		return err
	}

	if !result.Clean() {
		for _, drift := range result.Drifts {
			j.logger.Warn("reconciliation drift",
				logger.String("kind", string(drift.Kind)),
				logger.String("key", drift.Key),
				logger.String("detail", drift.Detail),
			)
		}
	}
	return nil
}
