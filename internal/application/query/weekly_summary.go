package query

import (
	"context"
	"sort"

	"github.com/studioroll/attendance-hub/internal/domain/attendance"
	"github.com/studioroll/attendance-hub/internal/domain/student"
	"github.com/studioroll/attendance-hub/pkg/isoweek"
	"github.com/studioroll/attendance-hub/pkg/logger"
)

// WeeklySummaryQuery asks for the per-student attendance counts of one
// ISO week.
type WeeklySummaryQuery struct {
	// WeekID identifies the week, "YYYY-Www".
	WeekID string
}

// Validate validates the query parameters.
func (q WeeklySummaryQuery) Validate() error {
	if _, _, ok := isoweek.Parse(q.WeekID); !ok {
		return ErrInvalidWeekID
	}
	return nil
}

// SummaryEntryDTO is one row of the weekly summary.
type SummaryEntryDTO struct {
	// Name is the student's identity key.
	Name string `json:"name"`

	// Count is the number of classes attended within the week, 1..7.
	Count int `json:"count"`
}

// WeeklySummaryResult is the aggregated week report.
type WeeklySummaryResult struct {
	// WeekID echoes the requested week.
	WeekID string `json:"week_id"`

	// Monday is the week's first date, "YYYY-MM-DD".
	Monday string `json:"monday"`

	// Entries is sorted count-descending, ties broken name-ascending.
	// Students with zero marks in the week do not appear.
	Entries []SummaryEntryDTO `json:"entries"`

	// TotalMarks is the sum of all counts.
	TotalMarks int `json:"total_marks"`
}

// WeeklySummaryHandler handles WeeklySummaryQuery.
type WeeklySummaryHandler struct {
	deps Deps
}

// NewWeeklySummaryHandler creates a new WeeklySummaryHandler.
func NewWeeklySummaryHandler(deps Deps) *WeeklySummaryHandler {
	return &WeeklySummaryHandler{deps: deps}
}

// Handle computes the summary, consulting the cache first when one is
// configured. Cached results are served as-is; a miss recomputes from
// the snapshot and repopulates the cache.
func (h *WeeklySummaryHandler) Handle(ctx context.Context, q WeeklySummaryQuery) (*WeeklySummaryResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	if h.deps.Summaries != nil {
		if cached, ok := h.deps.Summaries.Get(ctx, q.WeekID); ok {
			h.deps.log().Debug("weekly summary cache hit", logger.WeekID(q.WeekID))
			return cached, nil
		}
	}

	dates := isoweek.Dates(q.WeekID)
	counts := make(map[string]int)
	h.deps.State.View(func(_ *student.Roster, index *attendance.Index) {
		for _, date := range dates {
			for _, name := range index.Names(date) {
				counts[name]++
			}
		}
	})

	result := &WeeklySummaryResult{
		WeekID:  q.WeekID,
		Monday:  dates[0],
		Entries: make([]SummaryEntryDTO, 0, len(counts)),
	}
	for name, count := range counts {
		result.Entries = append(result.Entries, SummaryEntryDTO{Name: name, Count: count})
		result.TotalMarks += count
	}
	sort.Slice(result.Entries, func(i, j int) bool {
		if result.Entries[i].Count != result.Entries[j].Count {
			return result.Entries[i].Count > result.Entries[j].Count
		}
		return result.Entries[i].Name < result.Entries[j].Name
	})

	if h.deps.Summaries != nil {
		h.deps.Summaries.Set(ctx, q.WeekID, result)
	}
	return result, nil
}
