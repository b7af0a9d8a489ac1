// Package eventhandler contains subscribers that react to domain
// events after the in-memory state has committed.
package eventhandler

import (
	"github.com/studioroll/attendance-hub/internal/domain/shared"
	"github.com/studioroll/attendance-hub/pkg/logger"
)

// AuditHandler writes a structured audit line for every domain event.
// The ledger itself keeps no history of who changed what, so the audit
// log is the only record of individual mutations.
type AuditHandler struct {
	logger *logger.Logger
}

// NewAuditHandler creates an audit handler.
func NewAuditHandler(log *logger.Logger) *AuditHandler {
	if log == nil {
		log = logger.Default()
	}
	return &AuditHandler{logger: log}
}

// Subscribe registers the handler for all event types.
func (h *AuditHandler) Subscribe(bus shared.EventSubscriber) error {
	return bus.SubscribeAll(h.Handle)
}

// Handle logs one event. Never returns an error: a dropped audit line
// must not fail the command that produced the event.
func (h *AuditHandler) Handle(event shared.Event) error {
	fields := []logger.Field{
		logger.String("event", string(event.EventType())),
		logger.String("aggregate", event.AggregateID()),
	}

	switch ev := event.(type) {
	case shared.StudentEnrolledEvent:
		fields = append(fields,
			logger.StudentName(ev.Name),
			logger.Pack(ev.InitialPack),
		)
	case shared.StudentRemovedEvent:
		fields = append(fields,
			logger.StudentName(ev.Name),
			logger.Int("affected_dates", len(ev.AffectedDates)),
		)
	case shared.StudentActiveChangedEvent:
		fields = append(fields,
			logger.StudentName(ev.Name),
			logger.Bool("active", ev.Active),
		)
	case shared.StudentBalanceAdjustedEvent:
		fields = append(fields,
			logger.StudentName(ev.Name),
			logger.String("kind", ev.Kind),
			logger.Int("amount", ev.Amount),
			logger.Pack(ev.Pack),
			logger.Debt(ev.Debt),
		)
	case shared.AttendanceMarkedEvent:
		fields = append(fields,
			logger.StudentName(ev.Name),
			logger.ClassDate(ev.Date),
			logger.Bool("consumed_pack", ev.ConsumedPack),
			logger.Pack(ev.Pack),
			logger.Debt(ev.Debt),
		)
	case shared.AttendanceUnmarkedEvent:
		fields = append(fields,
			logger.StudentName(ev.Name),
			logger.ClassDate(ev.Date),
			logger.Bool("refunded_pack", ev.RefundedPack),
			logger.Bool("day_deleted", ev.DayDeleted),
		)
	case shared.ReconcileCompletedEvent:
		fields = append(fields,
			logger.Int("students_checked", ev.StudentsChecked),
			logger.Int("days_checked", ev.DaysChecked),
			logger.Int("drift_count", ev.DriftCount),
		)
	}

	h.logger.Info("audit", fields...)
	return nil
}
