// Package isoweek provides ISO-8601 week identifiers and the calendar dates
// they cover. Week identifiers use the "YYYY-Www" form; calendar dates use
// the "YYYY-MM-DD" form. Weeks run Monday through Sunday and week 1 is the
// week containing the first Thursday of the year.
// No external dependencies - uses only standard library.
package isoweek

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar date format used throughout the system.
const DateLayout = "2006-01-02"

// DaysPerWeek is the number of dates returned by Dates.
const DaysPerWeek = 7

// Of returns the ISO-8601 week identifier for the given time, e.g. "2026-W09".
// The year component is the ISO week-numbering year, which can differ from
// the calendar year around January 1st.
func Of(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// OfDate returns the ISO week identifier for a "YYYY-MM-DD" date string.
// Returns an empty string if the date does not parse.
func OfDate(date string) string {
	t, err := time.ParseInLocation(DateLayout, date, time.UTC)
	if err != nil {
		return ""
	}
	return Of(t)
}

// Parse splits a "YYYY-Www" identifier into its ISO year and week number.
// The week number is validated against the 1..53 range but not against the
// actual length of the given ISO year.
func Parse(weekID string) (year, week int, ok bool) {
	parts := strings.SplitN(weekID, "-W", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil || year < 1 {
		return 0, 0, false
	}
	week, err = strconv.Atoi(parts[1])
	if err != nil || week < 1 || week > 53 {
		return 0, 0, false
	}
	return year, week, true
}

// Monday returns the Monday starting the given ISO week.
// January 4th always falls in week 1, which anchors the calculation.
func Monday(year, week int) time.Time {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	wd := int(jan4.Weekday())
	if wd == 0 {
		wd = 7 // Sunday
	}
	week1Monday := jan4.AddDate(0, 0, 1-wd)
	return week1Monday.AddDate(0, 0, (week-1)*DaysPerWeek)
}

// Dates returns the seven calendar dates of the identified week, Monday
// through Sunday, as "YYYY-MM-DD" strings. An empty or malformed week
// identifier yields nil rather than an error, so callers can treat "no
// filter selected" and "bad filter" the same way.
func Dates(weekID string) []string {
	year, week, ok := Parse(weekID)
	if !ok {
		return nil
	}
	monday := Monday(year, week)
	dates := make([]string, DaysPerWeek)
	for i := 0; i < DaysPerWeek; i++ {
		dates[i] = monday.AddDate(0, 0, i).Format(DateLayout)
	}
	return dates
}

// Contains reports whether the given "YYYY-MM-DD" date falls inside the
// identified week.
func Contains(weekID, date string) bool {
	return OfDate(date) == weekID
}
