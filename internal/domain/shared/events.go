// Package shared contains common domain types, errors, and events used
// across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event records something significant that
// happened to the ledger; subscribers (cache invalidation, audit logging)
// react to them after the in-memory state has already committed.
const (
	// Student events
	EventStudentEnrolled        EventType = "student.enrolled"
	EventStudentRemoved         EventType = "student.removed"
	EventStudentActiveChanged   EventType = "student.active_changed"
	EventStudentBalanceAdjusted EventType = "student.balance_adjusted"

	// Attendance events
	EventAttendanceMarked   EventType = "attendance.marked"
	EventAttendanceUnmarked EventType = "attendance.unmarked"

	// System events
	EventReconcileCompleted EventType = "system.reconcile_completed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
	}
}

// StudentEnrolledEvent is emitted when a new student is enrolled.
type StudentEnrolledEvent struct {
	BaseEvent
	Name        string `json:"name"`
	InitialPack int    `json:"initial_pack"`
}

// StudentRemovedEvent is emitted when a student and their attendance
// history are deleted. AffectedDates lists the attendance days touched
// by the purge.
type StudentRemovedEvent struct {
	BaseEvent
	Name          string   `json:"name"`
	AffectedDates []string `json:"affected_dates,omitempty"`
}

// StudentActiveChangedEvent is emitted when a student is deactivated or
// reactivated.
type StudentActiveChangedEvent struct {
	BaseEvent
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// StudentBalanceAdjustedEvent is emitted for administrative pack
// recharges and debt payments.
type StudentBalanceAdjustedEvent struct {
	BaseEvent
	Name   string `json:"name"`
	Kind   string `json:"kind"` // "recharge" or "paydebt"
	Amount int    `json:"amount"`
	Pack   int    `json:"pack"`
	Debt   int    `json:"debt"`
}

// AttendanceMarkedEvent is emitted when attendance is marked.
// ConsumedPack records which balance the mark moved: true when a pack
// credit was drained, false when a debt unit was incurred. This is the
// audit trail for the heuristic unmark inverse.
type AttendanceMarkedEvent struct {
	BaseEvent
	Name         string `json:"name"`
	Date         string `json:"date"`
	ConsumedPack bool   `json:"consumed_pack"`
	Pack         int    `json:"pack"`
	Debt         int    `json:"debt"`
}

// AttendanceUnmarkedEvent is emitted when attendance is removed.
// RefundedPack records the inverse branch: true when a pack credit was
// refunded, false when a debt unit was cleared.
type AttendanceUnmarkedEvent struct {
	BaseEvent
	Name         string `json:"name"`
	Date         string `json:"date"`
	RefundedPack bool   `json:"refunded_pack"`
	DayDeleted   bool   `json:"day_deleted"`
}

// ReconcileCompletedEvent is emitted after an attendance reconciliation
// run, whether or not drift was found.
type ReconcileCompletedEvent struct {
	BaseEvent
	StudentsChecked int `json:"students_checked"`
	DaysChecked     int `json:"days_checked"`
	DriftCount      int `json:"drift_count"`
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
