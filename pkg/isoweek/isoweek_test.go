package isoweek

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOf_YearBoundaries(t *testing.T) {
	cases := []struct {
		date string
		want string
	}{
		{"2005-01-01", "2004-W53"}, // Saturday, belongs to the old year
		{"2005-01-02", "2004-W53"},
		{"2005-12-31", "2005-W52"},
		{"2007-01-01", "2007-W01"}, // Monday starting week 1
		{"2008-12-29", "2009-W01"}, // Monday, belongs to the new year
		{"2010-01-03", "2009-W53"},
		{"2016-01-04", "2016-W01"},
		{"2020-12-31", "2020-W53"}, // Thursday of a 53-week year
		{"2021-01-01", "2020-W53"},
		{"2026-08-31", "2026-W36"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, OfDate(tc.date), "date %s", tc.date)
	}
}

func TestDates_KnownWeeks(t *testing.T) {
	dates := Dates("2009-W01")
	require.Len(t, dates, 7)
	assert.Equal(t, "2008-12-29", dates[0])
	assert.Equal(t, "2009-01-04", dates[6])

	dates = Dates("2020-W53")
	require.Len(t, dates, 7)
	assert.Equal(t, "2020-12-28", dates[0])
	assert.Equal(t, "2021-01-03", dates[6])
}

func TestDates_InvalidInput(t *testing.T) {
	for _, weekID := range []string{"", "2024", "2024-W00", "2024-W54", "2024-Wxx", "xxxx-W10", "2024-10"} {
		assert.Nil(t, Dates(weekID), "week id %q", weekID)
	}
}

// Dates must invert Of: every date belongs to the week its identifier names,
// every week has exactly seven consecutive dates, and every week starts on
// a Monday.
func TestRoundTrip(t *testing.T) {
	start := time.Date(2019, time.December, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 800; i++ {
		day := start.AddDate(0, 0, i)
		weekID := Of(day)
		dates := Dates(weekID)
		require.Len(t, dates, 7, "week %s", weekID)

		monday, err := time.ParseInLocation(DateLayout, dates[0], time.UTC)
		require.NoError(t, err)
		assert.Equal(t, time.Monday, monday.Weekday(), "week %s", weekID)

		for j := 1; j < 7; j++ {
			assert.Equal(t, monday.AddDate(0, 0, j).Format(DateLayout), dates[j])
		}

		assert.Contains(t, dates, day.Format(DateLayout), "week %s", weekID)
		assert.True(t, Contains(weekID, day.Format(DateLayout)))
	}
}

func TestOfDate_Malformed(t *testing.T) {
	assert.Equal(t, "", OfDate("31/08/2026"))
	assert.Equal(t, "", OfDate(""))
}
