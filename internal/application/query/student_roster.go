package query

import (
	"context"

	"github.com/studioroll/attendance-hub/internal/domain/attendance"
	"github.com/studioroll/attendance-hub/internal/domain/student"
)

// StudentRosterQuery asks for the full roster, split by active status.
type StudentRosterQuery struct{}

// RosterEntryDTO is one roster row.
type RosterEntryDTO struct {
	// Name is the student's identity key.
	Name string `json:"name"`

	// Pack and Debt are the current balances.
	Pack int `json:"pack"`
	Debt int `json:"debt"`

	// Active is the enrollment status.
	Active bool `json:"active"`

	// TotalAttended is the whole-history class count for the student.
	TotalAttended int `json:"total_attended"`

	// Alert flags balances that need attention.
	Alert AlertLevel `json:"alert,omitempty"`
}

// StudentRosterResult is the roster view.
type StudentRosterResult struct {
	// Active and Inactive are each sorted name-ascending.
	Active   []RosterEntryDTO `json:"active"`
	Inactive []RosterEntryDTO `json:"inactive"`
}

// StudentRosterHandler handles StudentRosterQuery.
type StudentRosterHandler struct {
	deps Deps
}

// NewStudentRosterHandler creates a new StudentRosterHandler.
func NewStudentRosterHandler(deps Deps) *StudentRosterHandler {
	return &StudentRosterHandler{deps: deps}
}

// Handle builds both partitions from the snapshot.
func (h *StudentRosterHandler) Handle(_ context.Context, _ StudentRosterQuery) (*StudentRosterResult, error) {
	result := &StudentRosterResult{}
	h.deps.State.View(func(roster *student.Roster, index *attendance.Index) {
		active, inactive := roster.PartitionByActive()
		result.Active = rosterEntries(active, index)
		result.Inactive = rosterEntries(inactive, index)
	})
	return result, nil
}

func rosterEntries(students []*student.Student, index *attendance.Index) []RosterEntryDTO {
	out := make([]RosterEntryDTO, 0, len(students))
	for _, s := range students {
		out = append(out, RosterEntryDTO{
			Name:          s.Name,
			Pack:          int(s.Pack),
			Debt:          int(s.Debt),
			Active:        s.Active,
			TotalAttended: index.TotalFor(s.Name),
			Alert:         alertFor(s.Pack, s.Debt),
		})
	}
	return out
}
