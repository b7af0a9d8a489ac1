// Package attendance contains the attendance index domain model: the
// mapping from calendar date to the students marked present that day.
// A name appears at most once per date, and no date exists with zero
// attendees. This package has zero external dependencies.
package attendance

import (
	"sort"
	"time"

	"github.com/studioroll/attendance-hub/internal/domain/shared"
	"github.com/studioroll/attendance-hub/pkg/isoweek"
)

// Attendance domain errors. AlreadyMarked and NotMarked are idempotency
// guards: non-fatal, reported to the caller, never retried.
var (
	// ErrAlreadyMarked - the (date, name) pair is already recorded.
	ErrAlreadyMarked = shared.NewDomainError("attendance", "Mark", shared.ErrConflict, "attendance already marked for that date")

	// ErrNotMarked - the (date, name) pair is not recorded.
	ErrNotMarked = shared.NewDomainError("attendance", "Unmark", shared.ErrConflict, "no attendance marked for that date")

	// ErrInvalidDate - the date key is not a "YYYY-MM-DD" calendar date.
	ErrInvalidDate = shared.NewDomainError("attendance", "Validate", shared.ErrInvalidFormat, "date must be YYYY-MM-DD")
)

// ValidDate reports whether the given string is a well-formed
// "YYYY-MM-DD" calendar date.
func ValidDate(date string) bool {
	_, err := time.ParseInLocation(isoweek.DateLayout, date, time.UTC)
	return err == nil && len(date) == len(isoweek.DateLayout)
}

// PurgeResult reports what happened to one date entry when a student was
// purged from the index. Deleted is true when the student was the last
// attendee and the date entry was removed; otherwise Names holds the
// remaining attendees to persist.
type PurgeResult struct {
	Date    string
	Deleted bool
	Names   []string
}

// Index maps calendar dates to the ordered set of students present that
// day. Insertion order is preserved for display; it carries no semantic
// weight. Not safe for concurrent use; the accounting engine serializes
// access behind its own lock.
type Index struct {
	days map[string][]string
}

// NewIndex creates an empty attendance index.
func NewIndex() *Index {
	return &Index{days: make(map[string][]string)}
}

// NewIndexFrom builds an index from loaded day documents, dropping
// duplicate names within a day and days with no attendees. Stores written
// only through the engine never contain either, so this is a defensive
// load path.
func NewIndexFrom(days map[string][]string) *Index {
	idx := NewIndex()
	for date, names := range days {
		for _, name := range names {
			if !idx.contains(date, name) {
				idx.days[date] = append(idx.days[date], name)
			}
		}
	}
	return idx
}

func (idx *Index) contains(date, name string) bool {
	for _, n := range idx.days[date] {
		if n == name {
			return true
		}
	}
	return false
}

// Mark records the student as present on the date. Returns
// ErrAlreadyMarked (state unchanged) if the pair is already recorded,
// and ErrInvalidDate for a malformed date key.
func (idx *Index) Mark(date, name string) error {
	if !ValidDate(date) {
		return ErrInvalidDate
	}
	if idx.contains(date, name) {
		return ErrAlreadyMarked
	}
	idx.days[date] = append(idx.days[date], name)
	return nil
}

// Unmark removes the student from the date. The date entry is deleted
// when its last attendee is removed. Returns ErrNotMarked (state
// unchanged) if the pair is not recorded.
func (idx *Index) Unmark(date, name string) error {
	names, ok := idx.days[date]
	if !ok {
		return ErrNotMarked
	}
	for i, n := range names {
		if n == name {
			idx.days[date] = append(names[:i], names[i+1:]...)
			if len(idx.days[date]) == 0 {
				delete(idx.days, date)
			}
			return nil
		}
	}
	return ErrNotMarked
}

// PurgeStudent removes the student from every date, deleting dates that
// become empty. The results, ordered by date ascending, tell the caller
// which day documents to rewrite and which to delete.
func (idx *Index) PurgeStudent(name string) []PurgeResult {
	var results []PurgeResult
	for date := range idx.days {
		if !idx.contains(date, name) {
			continue
		}
		if err := idx.Unmark(date, name); err != nil {
			continue
		}
		remaining, ok := idx.days[date]
		if !ok {
			results = append(results, PurgeResult{Date: date, Deleted: true})
		} else {
			names := make([]string, len(remaining))
			copy(names, remaining)
			results = append(results, PurgeResult{Date: date, Names: names})
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Date < results[j].Date })
	return results
}

// Marked reports whether the (date, name) pair is recorded.
func (idx *Index) Marked(date, name string) bool {
	return idx.contains(date, name)
}

// Names returns the attendees of the date in insertion order, or nil if
// the date has no entry.
func (idx *Index) Names(date string) []string {
	names, ok := idx.days[date]
	if !ok {
		return nil
	}
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// Dates returns every date with at least one attendee, ascending.
func (idx *Index) Dates() []string {
	dates := make([]string, 0, len(idx.days))
	for date := range idx.days {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}

// TotalFor returns the number of dates containing the student's name
// over the whole history.
func (idx *Index) TotalFor(name string) int {
	total := 0
	for date := range idx.days {
		if idx.contains(date, name) {
			total++
		}
	}
	return total
}

// Len returns the number of dates with at least one attendee.
func (idx *Index) Len() int {
	return len(idx.days)
}
