package recon

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"
)

// ExportExcel renders a report into an xlsx workbook: a Summary sheet with
// the aggregate stats and per-field change counters, and a Changes sheet
// with one row per source row in original file order.
func ExportExcel(report *ReconciliationReport, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	summary := "Summary"
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return err
	}

	summaryRows := [][]interface{}{
		{"Report ID", report.ID},
		{"Insurer", report.InsurerName},
		{"Started At", report.Stats.StartedAt.Format("2006-01-02 15:04:05")},
		{"Completed At", report.Stats.CompletedAt.Format("2006-01-02 15:04:05")},
		{"Records Processed", report.Stats.TotalRecordsProcessed},
		{"Records Updated", report.Stats.TotalRecordsUpdated},
		{"Records Added", report.Stats.TotalRecordsAdded},
		{"Records Skipped", report.Stats.TotalRecordsSkipped},
		{"Errors", report.Stats.TotalErrors},
	}
	for i, pair := range summaryRows {
		f.SetCellValue(summary, fmt.Sprintf("A%d", i+1), pair[0])
		f.SetCellValue(summary, fmt.Sprintf("B%d", i+1), pair[1])
	}

	// Per-field counters, alphabetical so repeated exports line up.
	fieldNames := make([]string, 0, len(report.Stats.FieldChanges))
	for field := range report.Stats.FieldChanges {
		fieldNames = append(fieldNames, field)
	}
	sort.Strings(fieldNames)
	base := len(summaryRows) + 2
	f.SetCellValue(summary, fmt.Sprintf("A%d", base), "Field")
	f.SetCellValue(summary, fmt.Sprintf("B%d", base), "Rows Changed")
	for i, field := range fieldNames {
		f.SetCellValue(summary, fmt.Sprintf("A%d", base+i+1), field)
		f.SetCellValue(summary, fmt.Sprintf("B%d", base+i+1), report.Stats.FieldChanges[field])
	}

	changes := "Changes"
	if _, err := f.NewSheet(changes); err != nil {
		return err
	}
	headers := []string{"Row", "Policy Number", "Action", "Field", "Old Value", "New Value", "Message"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(changes, cell, h)
	}

	rowNo := 2
	writeChange := func(detail ChangeDetail, field, oldVal, newVal string) {
		f.SetCellValue(changes, fmt.Sprintf("A%d", rowNo), detail.RowIndex+1)
		f.SetCellValue(changes, fmt.Sprintf("B%d", rowNo), detail.PolicyNumber)
		f.SetCellValue(changes, fmt.Sprintf("C%d", rowNo), string(detail.Action))
		f.SetCellValue(changes, fmt.Sprintf("D%d", rowNo), field)
		f.SetCellValue(changes, fmt.Sprintf("E%d", rowNo), oldVal)
		f.SetCellValue(changes, fmt.Sprintf("F%d", rowNo), newVal)
		f.SetCellValue(changes, fmt.Sprintf("G%d", rowNo), detail.Message)
		rowNo++
	}

	for _, detail := range report.ChangeDetails {
		switch detail.Action {
		case ActionUpdated:
			fields := make([]string, 0, len(detail.ChangedFields))
			for field := range detail.ChangedFields {
				fields = append(fields, field)
			}
			sort.Strings(fields)
			for _, field := range fields {
				change := detail.ChangedFields[field]
				writeChange(detail, field, change.Old, change.New)
			}
		case ActionAdded:
			fields := make([]string, 0, len(detail.NewValues))
			for field := range detail.NewValues {
				fields = append(fields, field)
			}
			sort.Strings(fields)
			for _, field := range fields {
				writeChange(detail, field, "", detail.NewValues[field])
			}
		default:
			writeChange(detail, "", "", "")
		}
	}

	return f.Write(w)
}
