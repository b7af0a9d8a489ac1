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

// UnmarkAttendanceCommand removes one recorded attendance and refunds
// its balance effect: outstanding debt is cleared before a pack credit
// is refunded. The ledger does not track which branch the original mark
// fired, so this inverse is a heuristic (see student.RevertAttendance).
type UnmarkAttendanceCommand struct {
	// Date is the class date, "YYYY-MM-DD".
	Date string

	// Name is the student's identity key.
	Name string
}

// Validate validates the command.
func (c UnmarkAttendanceCommand) Validate() error {
	if !attendance.ValidDate(c.Date) {
		return attendance.ErrInvalidDate
	}
	if strings.TrimSpace(c.Name) == "" {
		return student.ErrInvalidName
	}
	return nil
}

// UnmarkAttendanceResult reports the committed reversal.
type UnmarkAttendanceResult struct {
	// Student is a snapshot of the updated ledger entry. Nil when the
	// student record no longer exists; the index is still cleaned and
	// no balance moves.
	Student *student.Student

	// Effect is the refund branch taken; empty when Student is nil.
	Effect student.AttendEffect

	// Date is the attendance date the reversal touched.
	Date string

	// DayDeleted is true when the student was the day's last attendee
	// and the day document must be deleted rather than rewritten.
	DayDeleted bool

	// DayNames is the remaining attendee list when DayDeleted is false.
	DayNames []string
}

// UnmarkAttendanceHandler handles UnmarkAttendanceCommand.
type UnmarkAttendanceHandler struct {
	deps Deps
}

// NewUnmarkAttendanceHandler creates a new UnmarkAttendanceHandler.
func NewUnmarkAttendanceHandler(deps Deps) *UnmarkAttendanceHandler {
	return &UnmarkAttendanceHandler{deps: deps}
}

// Handle executes the reversal. Reports ErrNotMarked (state unchanged)
// when the pair is not recorded.
func (h *UnmarkAttendanceHandler) Handle(ctx context.Context, cmd UnmarkAttendanceCommand) (*UnmarkAttendanceResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var (
		result    UnmarkAttendanceResult
		studentID string
		fields    student.Fields
	)

	err := h.deps.State.Mutate(func(roster *student.Roster, index *attendance.Index) error {
		if err := index.Unmark(cmd.Date, cmd.Name); err != nil {
			return err
		}

		remaining := index.Names(cmd.Date)
		result = UnmarkAttendanceResult{
			Date:       cmd.Date,
			DayDeleted: remaining == nil,
			DayNames:   remaining,
		}

		// A mark can outlive its student only transiently (concurrent
		// delete); refund nothing in that case, just clean the index.
		s, err := roster.Get(cmd.Name)
		if err != nil {
			return nil
		}

		effect := s.RevertAttendance()
		if effect.RefundedPack() {
			fields = student.PackField(s.Pack)
		} else {
			fields = student.DebtField(s.Debt)
		}
		studentID = s.ID
		result.Student = s.Clone()
		result.Effect = effect
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Student != nil {
		h.deps.publish(shared.AttendanceUnmarkedEvent{
			BaseEvent:    shared.NewBaseEvent(shared.EventAttendanceUnmarked, studentID),
			Name:         cmd.Name,
			Date:         cmd.Date,
			RefundedPack: result.Effect.RefundedPack(),
			DayDeleted:   result.DayDeleted,
		})
		h.deps.log().Info("attendance unmarked",
			logger.StudentName(cmd.Name),
			logger.ClassDate(cmd.Date),
			logger.String("effect", string(result.Effect)),
		)
	}

	ops := make([]persistOp, 0, 2)
	if result.Student != nil {
		ops = append(ops, func(ctx context.Context) error {
			return h.deps.Students.Update(ctx, studentID, fields)
		})
	}
	if result.DayDeleted {
		ops = append(ops, func(ctx context.Context) error {
			return h.deps.Days.Delete(ctx, cmd.Date)
		})
	} else {
		ops = append(ops, func(ctx context.Context) error {
			return h.deps.Days.Set(ctx, cmd.Date, result.DayNames)
		})
	}

	if persistErr := persist(ctx, ops...); persistErr != nil {
		return &result, fmt.Errorf("unmark_attendance: persist: %w", persistErr)
	}

	return &result, nil
}
