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

// RemoveStudentCommand deletes a student and purges every attendance
// referencing them. Balances are discarded with the record; nothing
// tries to undo historical pack/debt effects. The destructive
// confirmation dialog is an external concern: the caller obtains the
// user's decision first and passes it in.
type RemoveStudentCommand struct {
	// Name is the student's identity key.
	Name string

	// Confirmed is the pre-obtained user decision. The command is
	// rejected without it.
	Confirmed bool
}

// Validate validates the command.
func (c RemoveStudentCommand) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return student.ErrInvalidName
	}
	if !c.Confirmed {
		return shared.NewDomainError("student", "Remove", shared.ErrNotConfirmed, "deletion requires confirmation")
	}
	return nil
}

// RemoveStudentResult reports the committed deletion.
type RemoveStudentResult struct {
	// Student is a snapshot of the removed ledger entry.
	Student *student.Student

	// Purged lists every date the purge touched: rewritten days carry
	// their remaining names, emptied days are flagged deleted.
	Purged []attendance.PurgeResult
}

// RemoveStudentHandler handles RemoveStudentCommand.
type RemoveStudentHandler struct {
	deps Deps
}

// NewRemoveStudentHandler creates a new RemoveStudentHandler.
func NewRemoveStudentHandler(deps Deps) *RemoveStudentHandler {
	return &RemoveStudentHandler{deps: deps}
}

// Handle executes the deletion: index purge and roster removal commit
// together, then the student delete and every affected day document are
// persisted concurrently.
func (h *RemoveStudentHandler) Handle(ctx context.Context, cmd RemoveStudentCommand) (*RemoveStudentResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var (
		result    RemoveStudentResult
		studentID string
	)

	err := h.deps.State.Mutate(func(roster *student.Roster, index *attendance.Index) error {
		if !roster.Has(cmd.Name) {
			return student.ErrNotFound
		}
		result.Purged = index.PurgeStudent(cmd.Name)
		removed, err := roster.Remove(cmd.Name)
		if err != nil {
			return err
		}
		studentID = removed.ID
		result.Student = removed.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	affected := make([]string, len(result.Purged))
	for i, p := range result.Purged {
		affected[i] = p.Date
	}
	h.deps.publish(shared.StudentRemovedEvent{
		BaseEvent:     shared.NewBaseEvent(shared.EventStudentRemoved, studentID),
		Name:          cmd.Name,
		AffectedDates: affected,
	})
	h.deps.log().Info("student removed",
		logger.StudentName(cmd.Name),
		logger.Int("affected_dates", len(affected)),
	)

	ops := make([]persistOp, 0, len(result.Purged)+1)
	ops = append(ops, func(ctx context.Context) error {
		return h.deps.Students.Delete(ctx, studentID)
	})
	for _, p := range result.Purged {
		p := p
		if p.Deleted {
			ops = append(ops, func(ctx context.Context) error {
				return h.deps.Days.Delete(ctx, p.Date)
			})
		} else {
			ops = append(ops, func(ctx context.Context) error {
				return h.deps.Days.Set(ctx, p.Date, p.Names)
			})
		}
	}

	if persistErr := persist(ctx, ops...); persistErr != nil {
		return &result, fmt.Errorf("remove_student: persist: %w", persistErr)
	}

	return &result, nil
}
