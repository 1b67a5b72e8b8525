package recon

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrEmptyFile is returned when an uploaded file carries no data rows.
var ErrEmptyFile = errors.New("uploaded file has no data rows")

// ReadRows parses an uploaded insurer file into raw header->value rows.
// The format is picked from the file name extension; insurers ship either
// .xlsx workbooks or .csv exports.
func ReadRows(fileName string, r io.Reader) ([]map[string]string, error) {
	if strings.HasSuffix(strings.ToLower(fileName), ".csv") {
		return ReadCSVRows(r)
	}
	return ReadWorkbookRows(r)
}

// ReadWorkbookRows reads the first sheet of an xlsx workbook. Row 1 is the
// header row; every following row becomes one map keyed by header text.
func ReadWorkbookRows(r io.Reader) ([]map[string]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rowsFromTable(rows)
}

// ReadCSVRows reads a comma-separated export the same way: first record is
// the header row. Ragged rows are tolerated (FieldsPerRecord = -1); short
// rows simply leave trailing headers without values.
func ReadCSVRows(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rowsFromTable(records)
}

func rowsFromTable(table [][]string) ([]map[string]string, error) {
	if len(table) < 2 {
		return nil, ErrEmptyFile
	}
	headers := table[0]
	rows := make([]map[string]string, 0, len(table)-1)
	for _, cells := range table[1:] {
		if isBlankRow(cells) {
			continue
		}
		row := make(map[string]string, len(headers))
		for i, header := range headers {
			header = strings.TrimSpace(header)
			if header == "" {
				continue
			}
			if i < len(cells) {
				row[header] = cells[i]
			} else {
				row[header] = ""
			}
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}
	return rows, nil
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
