package query

import (
	"context"

	"github.com/studioroll/attendance-hub/internal/domain/attendance"
	"github.com/studioroll/attendance-hub/internal/domain/student"
	"github.com/studioroll/attendance-hub/pkg/isoweek"
)

// WeekHistoryQuery asks for the per-date attendee lists of one ISO week.
type WeekHistoryQuery struct {
	// WeekID identifies the week, "YYYY-Www".
	WeekID string
}

// Validate validates the query parameters.
func (q WeekHistoryQuery) Validate() error {
	if _, _, ok := isoweek.Parse(q.WeekID); !ok {
		return ErrInvalidWeekID
	}
	return nil
}

// DayHistoryDTO is one recorded day within the week.
type DayHistoryDTO struct {
	// Date is the class date, "YYYY-MM-DD".
	Date string `json:"date"`

	// Names is the attendee list in insertion order.
	Names []string `json:"names"`

	// Count is len(Names).
	Count int `json:"count"`
}

// WeekHistoryResult is the week's history view.
type WeekHistoryResult struct {
	// WeekID echoes the requested week.
	WeekID string `json:"week_id"`

	// Days holds only dates with at least one attendee, newest first.
	Days []DayHistoryDTO `json:"days"`
}

// WeekHistoryHandler handles WeekHistoryQuery.
type WeekHistoryHandler struct {
	deps Deps
}

// NewWeekHistoryHandler creates a new WeekHistoryHandler.
func NewWeekHistoryHandler(deps Deps) *WeekHistoryHandler {
	return &WeekHistoryHandler{deps: deps}
}

// Handle collects the week's recorded days from the snapshot.
func (h *WeekHistoryHandler) Handle(_ context.Context, q WeekHistoryQuery) (*WeekHistoryResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	dates := isoweek.Dates(q.WeekID)
	result := &WeekHistoryResult{WeekID: q.WeekID}
	h.deps.State.View(func(_ *student.Roster, index *attendance.Index) {
		// Walk the week backwards so days come out newest first.
		for i := len(dates) - 1; i >= 0; i-- {
			names := index.Names(dates[i])
			if len(names) == 0 {
				continue
			}
			result.Days = append(result.Days, DayHistoryDTO{
				Date:  dates[i],
				Names: names,
				Count: len(names),
			})
		}
	})
	return result, nil
}
