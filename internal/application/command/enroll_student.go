package command

import (
	"context"
	"fmt"

	"github.com/studioroll/attendance-hub/internal/domain/attendance"
	"github.com/studioroll/attendance-hub/internal/domain/shared"
	"github.com/studioroll/attendance-hub/internal/domain/student"
	"github.com/studioroll/attendance-hub/pkg/logger"
)

// EnrollStudentCommand creates a new student with an initial prepaid
// pack. The name must be unique among all students, active or inactive,
// with case-sensitive matching.
type EnrollStudentCommand struct {
	// Name is the new student's identity key.
	Name string

	// InitialPack is the prepaid credit count; negative values are
	// clamped to zero.
	InitialPack int
}

// EnrollStudentResult reports the created student.
type EnrollStudentResult struct {
	// Student is a snapshot of the new ledger entry, ID included.
	Student *student.Student
}

// EnrollStudentHandler handles EnrollStudentCommand.
type EnrollStudentHandler struct {
	deps Deps
}

// NewEnrollStudentHandler creates a new EnrollStudentHandler.
func NewEnrollStudentHandler(deps Deps) *EnrollStudentHandler {
	return &EnrollStudentHandler{deps: deps}
}

// Handle executes the enrollment.
func (h *EnrollStudentHandler) Handle(ctx context.Context, cmd EnrollStudentCommand) (*EnrollStudentResult, error) {
	s, err := student.NewStudent(cmd.Name, cmd.InitialPack)
	if err != nil {
		return nil, err
	}

	err = h.deps.State.Mutate(func(roster *student.Roster, _ *attendance.Index) error {
		return roster.Add(s)
	})
	if err != nil {
		return nil, err
	}

	result := EnrollStudentResult{Student: s.Clone()}

	h.deps.publish(shared.StudentEnrolledEvent{
		BaseEvent:   shared.NewBaseEvent(shared.EventStudentEnrolled, s.ID),
		Name:        s.Name,
		InitialPack: int(s.Pack),
	})
	h.deps.log().Info("student enrolled",
		logger.StudentName(s.Name),
		logger.Pack(int(s.Pack)),
	)

	if _, persistErr := h.deps.Students.Create(ctx, s); persistErr != nil {
		return &result, fmt.Errorf("enroll_student: persist: %w", persistErr)
	}

	return &result, nil
}
