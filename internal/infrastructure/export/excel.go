// Package export renders weekly attendance reports as XLSX workbooks.
package export

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/studioroll/attendance-hub/internal/application/query"
)

// summarySheet is the name of the workbook's first sheet.
const summarySheet = "Summary"

// WeeklyReportExporter writes one workbook per week: a summary sheet
// with per-student counts and a history sheet listing each recorded day.
type WeeklyReportExporter struct {
	summaries *query.WeeklySummaryHandler
	history   *query.WeekHistoryHandler
}

// NewWeeklyReportExporter creates a WeeklyReportExporter.
func NewWeeklyReportExporter(summaries *query.WeeklySummaryHandler, history *query.WeekHistoryHandler) *WeeklyReportExporter {
	return &WeeklyReportExporter{summaries: summaries, history: history}
}

// Export writes the report for weekID to w.
func (e *WeeklyReportExporter) Export(ctx context.Context, weekID string, w io.Writer) error {
	summary, err := e.summaries.Handle(ctx, query.WeeklySummaryQuery{WeekID: weekID})
	if err != nil {
		return err
	}
	history, err := e.history.Handle(ctx, query.WeekHistoryQuery{WeekID: weekID})
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := e.writeSummarySheet(f, summary); err != nil {
		return err
	}
	if err := e.writeHistorySheet(f, history); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: failed to write workbook: %w", err)
	}
	return nil
}

func (e *WeeklyReportExporter) writeSummarySheet(f *excelize.File, summary *query.WeeklySummaryResult) error {
	sheet := f.GetSheetName(0)
	if err := f.SetSheetName(sheet, summarySheet); err != nil {
		return fmt.Errorf("export: failed to rename sheet: %w", err)
	}

	header := [][]any{
		{"Week", summary.WeekID},
		{"Week starts", summary.Monday},
		{"Total classes marked", summary.TotalMarks},
		{},
		{"Student", "Classes"},
	}
	for i, row := range header {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("export: failed to write summary header: %w", err)
		}
	}

	for i, entry := range summary.Entries {
		cell, _ := excelize.CoordinatesToCellName(1, len(header)+1+i)
		row := []any{entry.Name, entry.Count}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("export: failed to write summary row: %w", err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetCellStyle(summarySheet, "A5", "B5", bold)
	}
	return nil
}

func (e *WeeklyReportExporter) writeHistorySheet(f *excelize.File, history *query.WeekHistoryResult) error {
	const sheet = "Days"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("export: failed to create days sheet: %w", err)
	}

	headerRow := []any{"Date", "Attendees", "Names"}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("export: failed to write days header: %w", err)
	}

	for i, day := range history.Days {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		names := ""
		for j, name := range day.Names {
			if j > 0 {
				names += ", "
			}
			names += name
		}
		row := []any{day.Date, day.Count, names}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("export: failed to write day row: %w", err)
		}
	}
	return nil
}
