package export

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/studioroll/attendance-hub/internal/application"
	"github.com/studioroll/attendance-hub/internal/application/query"
	"github.com/studioroll/attendance-hub/internal/domain/attendance"
	"github.com/studioroll/attendance-hub/internal/domain/student"
)

func TestWeeklyReportExporter(t *testing.T) {
	roster := student.NewRoster()
	for _, name := range []string{"Ana", "Bruno"} {
		s, err := student.NewStudent(name, 5)
		require.NoError(t, err)
		require.NoError(t, roster.Add(s))
	}
	state := application.NewState(roster, attendance.NewIndexFrom(map[string][]string{
		"2026-03-02": {"Ana", "Bruno"},
		"2026-03-04": {"Ana"},
	}))
	deps := query.Deps{State: state}
	exporter := NewWeeklyReportExporter(
		query.NewWeeklySummaryHandler(deps),
		query.NewWeekHistoryHandler(deps),
	)

	var buf bytes.Buffer
	require.NoError(t, exporter.Export(context.Background(), "2026-W10", &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "Days"}, f.GetSheetList())

	weekID, err := f.GetCellValue("Summary", "B1")
	require.NoError(t, err)
	assert.Equal(t, "2026-W10", weekID)

	topName, err := f.GetCellValue("Summary", "A6")
	require.NoError(t, err)
	assert.Equal(t, "Ana", topName)
	topCount, err := f.GetCellValue("Summary", "B6")
	require.NoError(t, err)
	assert.Equal(t, "2", topCount)

	// History is newest first.
	firstDate, err := f.GetCellValue("Days", "A2")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-04", firstDate)
	names, err := f.GetCellValue("Days", "C3")
	require.NoError(t, err)
	assert.Equal(t, "Ana, Bruno", names)
}

func TestWeeklyReportExporter_InvalidWeek(t *testing.T) {
	state := application.NewState(student.NewRoster(), attendance.NewIndex())
	deps := query.Deps{State: state}
	exporter := NewWeeklyReportExporter(
		query.NewWeeklySummaryHandler(deps),
		query.NewWeekHistoryHandler(deps),
	)

	var buf bytes.Buffer
	err := exporter.Export(context.Background(), "bogus", &buf)
	assert.ErrorIs(t, err, query.ErrInvalidWeekID)
	assert.Zero(t, buf.Len())
}
