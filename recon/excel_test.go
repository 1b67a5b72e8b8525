package recon

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func TestReadCSVRows_HeaderAndValues(t *testing.T) {
	csv := "Policy No,Net Premium,Remarks\n" +
		"POL-1,9000,ok\n" +
		"POL-2,8500,\n"

	rows, err := ReadCSVRows(strings.NewReader(csv))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["Policy No"] != "POL-1" || rows[0]["Net Premium"] != "9000" {
		t.Fatalf("row 0 = %v", rows[0])
	}
	if rows[1]["Remarks"] != "" {
		t.Fatalf("empty cell should map to empty string, got %q", rows[1]["Remarks"])
	}
}

func TestReadCSVRows_RaggedAndBlankRows(t *testing.T) {
	csv := "Policy No,Net Premium,Remarks\n" +
		"POL-1,9000\n" + // short row: trailing header has no value
		",,\n" + // blank row: skipped entirely
		"POL-2,8500,fine\n"

	rows, err := ReadCSVRows(strings.NewReader(csv))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected blank row skipped, got %d rows", len(rows))
	}
	if v, ok := rows[0]["Remarks"]; !ok || v != "" {
		t.Fatalf("short row should carry empty value for trailing header, got %q ok=%v", v, ok)
	}
	if rows[1]["Policy No"] != "POL-2" {
		t.Fatalf("row after blank = %v", rows[1])
	}
}

func TestReadCSVRows_NoDataRows(t *testing.T) {
	for _, csv := range []string{"", "Policy No,Net Premium\n", "Policy No,Net Premium\n,,\n"} {
		if _, err := ReadCSVRows(strings.NewReader(csv)); !errors.Is(err, ErrEmptyFile) {
			t.Fatalf("input %q: expected ErrEmptyFile, got %v", csv, err)
		}
	}
}

func TestReadRows_WorkbookRoundTrip(t *testing.T) {
	f := excelize.NewFile()
	cells := [][]interface{}{
		{"Policy No", "Net Premium"},
		{"POL-1", 9000},
		{"", ""}, // blank row
		{"POL-2", "8,500"},
	}
	for i, row := range cells {
		for j, v := range row {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+1)
			if err := f.SetCellValue("Sheet1", cell, v); err != nil {
				t.Fatal(err)
			}
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}

	rows, err := ReadRows("statement.xlsx", bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 data rows, got %d", len(rows))
	}
	if rows[0]["Policy No"] != "POL-1" || rows[0]["Net Premium"] != "9000" {
		t.Fatalf("row 0 = %v", rows[0])
	}
	if rows[1]["Net Premium"] != "8,500" {
		t.Fatalf("formatted cell should pass through raw, got %q", rows[1]["Net Premium"])
	}
}

func TestReadRows_DispatchOnExtension(t *testing.T) {
	csv := "Policy No\nPOL-1\n"
	rows, err := ReadRows("export.CSV", strings.NewReader(csv))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0]["Policy No"] != "POL-1" {
		t.Fatalf("rows = %v", rows)
	}
}

func TestExportExcel_SummaryAndChangesLayout(t *testing.T) {
	started := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	report := &ReconciliationReport{
		ID:          "run-1",
		InsurerName: "HDFC Ergo",
		Stats: ReportStats{
			TotalRecordsProcessed: 3,
			TotalRecordsUpdated:   1,
			TotalRecordsAdded:     1,
			TotalRecordsSkipped:   1,
			TotalErrors:           1,
			FieldChanges:          map[string]int{"net_premium": 1, "customer_name": 1},
			StartedAt:             started,
			CompletedAt:           started.Add(2 * time.Second),
		},
		ChangeDetails: []ChangeDetail{
			{RowIndex: 0, PolicyNumber: "POL-1", Action: ActionUpdated, ChangedFields: map[string]FieldChange{
				"net_premium":   {Old: "9000", New: "9500"},
				"customer_name": {Old: "R Kumar", New: "Ravi Kumar"},
			}},
			{RowIndex: 1, PolicyNumber: "POL-2", Action: ActionAdded, NewValues: map[string]string{
				"gross_premium": "5000",
			}},
			{RowIndex: 2, Action: ActionError, Message: "policy number missing or unparseable"},
		},
	}

	var buf bytes.Buffer
	if err := ExportExcel(report, &buf); err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	cell := func(sheet, ref string) string {
		v, err := f.GetCellValue(sheet, ref)
		if err != nil {
			t.Fatalf("%s!%s: %v", sheet, ref, err)
		}
		return v
	}

	if got := cell("Summary", "B1"); got != "run-1" {
		t.Fatalf("Summary B1 = %q", got)
	}
	if got := cell("Summary", "B5"); got != "3" {
		t.Fatalf("records processed = %q", got)
	}
	// Per-field counters start two rows below the stats block, alphabetical.
	if got := cell("Summary", "A11"); got != "Field" {
		t.Fatalf("counter header = %q", got)
	}
	if cell("Summary", "A12") != "customer_name" || cell("Summary", "A13") != "net_premium" {
		t.Fatalf("counters not alphabetical: %q, %q", cell("Summary", "A12"), cell("Summary", "A13"))
	}

	// Changes: one row per changed/added field in file order, fields sorted
	// within a row; skipped/error rows take a single line.
	wantRows := [][2]string{
		{"D2", "customer_name"},
		{"D3", "net_premium"},
		{"D4", "gross_premium"},
	}
	for _, w := range wantRows {
		if got := cell("Changes", w[0]); got != w[1] {
			t.Fatalf("Changes %s = %q, want %q", w[0], got, w[1])
		}
	}
	if got := cell("Changes", "F3"); got != "9500" {
		t.Fatalf("new value for net_premium = %q", got)
	}
	if got := cell("Changes", "G5"); got != "policy number missing or unparseable" {
		t.Fatalf("error message cell = %q", got)
	}
	if got := cell("Changes", "A5"); got != "3" {
		t.Fatalf("error row should reference file row 3, got %q", got)
	}
}
