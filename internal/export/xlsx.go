// Package export renders reports for download.
package export

import (
	"fmt"
	"io"
	"strings"

	"attendance.service/internal/core/attendance"
	"github.com/xuri/excelize/v2"
)

const sheet = "Report"

var headers = []string{"Date", "Arrivals", "Departures", "Breaks", "Worked", "Break time", "Earnings", "Notes"}

// WriteXLSX renders the report rows and a totals line as a spreadsheet.
// Cells hold the report's display strings; nothing is recomputed here.
func WriteXLSX(w io.Writer, personName string, report *attendance.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	if err := setRow(f, 1, []any{"Attendance report", personName}); err != nil {
		return err
	}
	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := setRow(f, 3, header); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 3)
	if err := f.SetCellStyle(sheet, "A3", last, bold); err != nil {
		return err
	}

	row := 4
	for _, day := range report.Days {
		notes := day.Annotation
		if day.Summary.SpecialLabel != "" {
			notes = strings.TrimSpace(day.Summary.SpecialLabel + " " + notes)
		}
		values := []any{
			day.Date,
			strings.Join(day.Arrivals, ", "),
			strings.Join(day.Departures, ", "),
			strings.Join(day.Breaks, ", "),
			day.Worked,
			day.BreakTime,
			day.Earnings,
			notes,
		}
		if err := setRow(f, row, values); err != nil {
			return err
		}
		row++
	}

	totals := []any{"Total", "", "", "", report.TotalWorked, report.TotalBreak, report.TotalEarningsText, ""}
	if err := setRow(f, row+1, totals); err != nil {
		return err
	}
	first, _ := excelize.CoordinatesToCellName(1, row+1)
	last, _ = excelize.CoordinatesToCellName(len(headers), row+1)
	if err := f.SetCellStyle(sheet, first, last, bold); err != nil {
		return err
	}

	if err := f.SetColWidth(sheet, "A", "H", 14); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, row int, values []any) error {
	for i, val := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, val); err != nil {
			return err
		}
	}
	return nil
}
