package query

import (
	"context"

	"github.com/studioroll/attendance-hub/internal/domain/attendance"
	"github.com/studioroll/attendance-hub/internal/domain/student"
)

// lowPackThreshold is the pack level at which the day view starts
// flagging a student as running low.
const lowPackThreshold = 3

// AlertLevel classifies a student's balance for the day view.
type AlertLevel string

const (
	// AlertNone means the balance needs no attention.
	AlertNone AlertLevel = ""

	// AlertDebt means the student owes classes.
	AlertDebt AlertLevel = "debt"

	// AlertNoPack means the pack is exhausted; the next mark incurs debt.
	AlertNoPack AlertLevel = "no_pack"

	// AlertLowPack means the pack is at or below the low threshold.
	AlertLowPack AlertLevel = "low_pack"
)

// alertFor picks the most urgent applicable level.
func alertFor(pack student.Pack, debt student.Debt) AlertLevel {
	switch {
	case debt > 0:
		return AlertDebt
	case pack == 0:
		return AlertNoPack
	case int(pack) <= lowPackThreshold:
		return AlertLowPack
	default:
		return AlertNone
	}
}

// DayAttendanceQuery asks for the attendee list of one class date.
type DayAttendanceQuery struct {
	// Date is the class date, "YYYY-MM-DD".
	Date string
}

// Validate validates the query parameters.
func (q DayAttendanceQuery) Validate() error {
	if !attendance.ValidDate(q.Date) {
		return ErrInvalidDate
	}
	return nil
}

// AttendeeDTO is one attendee row with current balances.
type AttendeeDTO struct {
	// Name is the student's identity key.
	Name string `json:"name"`

	// Pack and Debt are the student's balances at read time, not at
	// mark time. Zero when Known is false.
	Pack int `json:"pack"`
	Debt int `json:"debt"`

	// Alert flags balances that need attention.
	Alert AlertLevel `json:"alert,omitempty"`

	// Known is false when the name has no matching roster entry.
	Known bool `json:"known"`
}

// DayAttendanceResult is the day view.
type DayAttendanceResult struct {
	// Date echoes the requested date.
	Date string `json:"date"`

	// Attendees is in insertion order, matching the marking sequence.
	Attendees []AttendeeDTO `json:"attendees"`

	// Count is len(Attendees).
	Count int `json:"count"`
}

// DayAttendanceHandler handles DayAttendanceQuery.
type DayAttendanceHandler struct {
	deps Deps
}

// NewDayAttendanceHandler creates a new DayAttendanceHandler.
func NewDayAttendanceHandler(deps Deps) *DayAttendanceHandler {
	return &DayAttendanceHandler{deps: deps}
}

// Handle resolves the day's attendees against the roster. A date with
// no entry yields an empty attendee list, not an error.
func (h *DayAttendanceHandler) Handle(_ context.Context, q DayAttendanceQuery) (*DayAttendanceResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	result := &DayAttendanceResult{Date: q.Date}
	h.deps.State.View(func(roster *student.Roster, index *attendance.Index) {
		names := index.Names(q.Date)
		result.Attendees = make([]AttendeeDTO, 0, len(names))
		for _, name := range names {
			dto := AttendeeDTO{Name: name}
			if s, err := roster.Get(name); err == nil {
				dto.Pack = int(s.Pack)
				dto.Debt = int(s.Debt)
				dto.Alert = alertFor(s.Pack, s.Debt)
				dto.Known = true
			}
			result.Attendees = append(result.Attendees, dto)
		}
	})
	result.Count = len(result.Attendees)
	return result, nil
}
