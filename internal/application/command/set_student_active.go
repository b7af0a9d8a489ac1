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

// SetStudentActiveCommand deactivates or reactivates a student. The
// toggle is idempotent and never moves balances; it is also the
// re-enrollment path for a name that already exists inactive.
type SetStudentActiveCommand struct {
	// Name is the student's identity key.
	Name string

	// Active is the desired state.
	Active bool
}

// Validate validates the command.
func (c SetStudentActiveCommand) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return student.ErrInvalidName
	}
	return nil
}

// SetStudentActiveResult reports the toggle.
type SetStudentActiveResult struct {
	// Student is a snapshot of the ledger entry after the toggle.
	Student *student.Student

	// Changed is false when the student was already in the desired
	// state; no persistence is issued in that case.
	Changed bool
}

// SetStudentActiveHandler handles SetStudentActiveCommand.
type SetStudentActiveHandler struct {
	deps Deps
}

// NewSetStudentActiveHandler creates a new SetStudentActiveHandler.
func NewSetStudentActiveHandler(deps Deps) *SetStudentActiveHandler {
	return &SetStudentActiveHandler{deps: deps}
}

// Handle executes the toggle.
func (h *SetStudentActiveHandler) Handle(ctx context.Context, cmd SetStudentActiveCommand) (*SetStudentActiveResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var (
		result    SetStudentActiveResult
		studentID string
	)

	err := h.deps.State.Mutate(func(roster *student.Roster, _ *attendance.Index) error {
		s, err := roster.Get(cmd.Name)
		if err != nil {
			return err
		}
		result.Changed = s.Active != cmd.Active
		s.SetActive(cmd.Active)
		studentID = s.ID
		result.Student = s.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.Changed {
		return &result, nil
	}

	h.deps.publish(shared.StudentActiveChangedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventStudentActiveChanged, studentID),
		Name:      cmd.Name,
		Active:    cmd.Active,
	})
	h.deps.log().Info("student active changed",
		logger.StudentName(cmd.Name),
		logger.Bool("active", cmd.Active),
	)

	if persistErr := h.deps.Students.Update(ctx, studentID, student.ActiveField(cmd.Active)); persistErr != nil {
		return &result, fmt.Errorf("set_student_active: persist: %w", persistErr)
	}

	return &result, nil
}
