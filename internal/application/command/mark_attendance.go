package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/studioroll/attendance-hub/internal/domain/attendance"
	"github.com/studioroll/attendance-hub/internal/domain/shared"
	"github.com/studioroll/attendance-hub/internal/domain/student"
	"github.com/studioroll/attendance-hub/pkg/logger"
)

// MarkAttendanceCommand records one class attendance for a student on a
// date. Marking consumes a pack credit when one is available, otherwise
// it incurs a debt unit - exactly one of the two, never both.
type MarkAttendanceCommand struct {
	// Date is the class date, "YYYY-MM-DD".
	Date string

	// Name is the student's identity key.
	Name string
}

// Validate validates the command.
func (c MarkAttendanceCommand) Validate() error {
	if !attendance.ValidDate(c.Date) {
		return attendance.ErrInvalidDate
	}
	if strings.TrimSpace(c.Name) == "" {
		return student.ErrInvalidName
	}
	return nil
}

// MarkAttendanceResult reports the committed mark.
type MarkAttendanceResult struct {
	// Student is a snapshot of the updated ledger entry.
	Student *student.Student

	// Effect is the balance branch the mark fired.
	Effect student.AttendEffect

	// Date is the attendance date the mark was recorded under.
	Date string

	// DayNames is the day's full attendee list after the mark, in
	// insertion order - the exact document the store received.
	DayNames []string
}

// MarkAttendanceHandler handles MarkAttendanceCommand.
type MarkAttendanceHandler struct {
	deps Deps
}

// NewMarkAttendanceHandler creates a new MarkAttendanceHandler.
func NewMarkAttendanceHandler(deps Deps) *MarkAttendanceHandler {
	return &MarkAttendanceHandler{deps: deps}
}

// Handle executes the mark. On success the snapshot has committed and
// the two persistence deltas (student balance, day document) were issued
// concurrently; a non-nil error alongside a non-nil result means the
// store write failed after the local commit.
func (h *MarkAttendanceHandler) Handle(ctx context.Context, cmd MarkAttendanceCommand) (*MarkAttendanceResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var (
		result    MarkAttendanceResult
		studentID string
		fields    student.Fields
	)

	err := h.deps.State.Mutate(func(roster *student.Roster, index *attendance.Index) error {
		s, err := roster.Get(cmd.Name)
		if err != nil {
			return err
		}
		if !s.Active {
			return student.ErrInactive
		}

		// The idempotency guard runs before any balance moves, so a
		// duplicate mark leaves pack, debt and the day set untouched.
		if err := index.Mark(cmd.Date, cmd.Name); err != nil {
			return err
		}

		effect := s.Attend()
		if effect.ConsumedPack() {
			fields = student.PackField(s.Pack)
		} else {
			fields = student.DebtField(s.Debt)
		}

		studentID = s.ID
		result = MarkAttendanceResult{
			Student:  s.Clone(),
			Effect:   effect,
			Date:     cmd.Date,
			DayNames: index.Names(cmd.Date),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	event := shared.AttendanceMarkedEvent{
		BaseEvent:    shared.NewBaseEvent(shared.EventAttendanceMarked, studentID),
		Name:         cmd.Name,
		Date:         cmd.Date,
		ConsumedPack: result.Effect.ConsumedPack(),
		Pack:         int(result.Student.Pack),
		Debt:         int(result.Student.Debt),
	}
	h.deps.publish(event)

	h.deps.log().Info("attendance marked",
		logger.StudentName(cmd.Name),
		logger.ClassDate(cmd.Date),
		logger.String("effect", string(result.Effect)),
		logger.Pack(int(result.Student.Pack)),
		logger.Debt(int(result.Student.Debt)),
	)

	persistErr := persist(ctx,
		func(ctx context.Context) error {
			return h.deps.Students.Update(ctx, studentID, fields)
		},
		func(ctx context.Context) error {
			return h.deps.Days.Set(ctx, cmd.Date, result.DayNames)
		},
	)
	if persistErr != nil {
		return &result, fmt.Errorf("mark_attendance: persist: %w", persistErr)
	}

	return &result, nil
}
