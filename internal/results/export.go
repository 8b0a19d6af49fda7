package results

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Results"

// WriteWorkbook renders report as an xlsx workbook: one row per course and a
// closing GPA row.
func WriteWorkbook(w io.Writer, report *Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	meta := [][]interface{}{
		{"Matric Number", report.Query.MatricNumber},
		{"Session", report.Query.Session},
		{"Semester", report.Query.Semester},
	}
	for i, row := range meta {
		if err := setRow(f, i+1, row); err != nil {
			return err
		}
	}

	headerRow := len(meta) + 2
	headers := []interface{}{"Course Code", "Course Title", "Credit Hours", "Score", "Grade"}
	if err := setRow(f, headerRow, headers); err != nil {
		return err
	}

	for i, r := range report.Results {
		row := []interface{}{r.Code, r.Title, r.CreditHours, r.Score, r.Grade}
		if err := setRow(f, headerRow+1+i, row); err != nil {
			return err
		}
	}

	totalRow := headerRow + len(report.Results) + 2
	if err := setRow(f, totalRow, []interface{}{"Total Credits", nil, report.TotalCredits}); err != nil {
		return err
	}
	if err := setRow(f, totalRow+1, []interface{}{"GPA", nil, report.GPA}); err != nil {
		return err
	}

	if err := f.SetColWidth(sheetName, "B", "B", 32); err != nil {
		return err
	}

	_, err := f.WriteTo(w)
	return err
}

func setRow(f *excelize.File, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

// ExportFilename names the workbook after the session and semester.
func ExportFilename(q Query) string {
	session := strings.ReplaceAll(q.Session, "/", "-")
	return fmt.Sprintf("results_%s_%s.xlsx", session, q.Semester)
}
