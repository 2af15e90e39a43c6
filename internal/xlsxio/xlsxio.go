// Package xlsxio extracts tabular data from xlsx files.
//
// Extraction is a two-stage strategy: the conventional reader (excelize)
// is tried first, and a minimal raw reader takes over when it fails.
// Marketplace portals routinely emit workbooks with broken style/theme
// parts that trip full-featured parsers; the raw reader ignores styles
// entirely and reads only the shared-string table and the target sheet.
package xlsxio

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Row is one data row of a sheet: a mapping from trimmed header cell to
// raw string value, plus the 1-based display row number in the sheet
// (accounting for the header offset).
type Row struct {
	Line  int
	Cells map[string]string
}

// Get returns the trimmed value of the named column, or "" when absent.
func (r Row) Get(column string) string {
	return strings.TrimSpace(r.Cells[column])
}

// Blank reports whether every cell in the row is empty or whitespace.
func (r Row) Blank() bool {
	for _, v := range r.Cells {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// FormatError indicates the file is not a workbook this package can read.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "invalid spreadsheet: " + e.Reason
}

// Extract parses an xlsx file into rows. sheet is the zero-based sheet
// index; headerRow is the zero-based index of the header row within that
// sheet. An empty sheet yields an empty slice, not an error.
//
// The excelize path is tried first; any open or read failure falls
// through to the raw reader.
func Extract(data []byte, sheet, headerRow int) ([]Row, error) {
	rows, err := extractFast(data, sheet, headerRow)
	if err == nil {
		return rows, nil
	}
	return extractRaw(data, sheet, headerRow)
}

// extractFast reads the sheet through excelize.
func extractFast(data []byte, sheet, headerRow int) ([]Row, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if sheet >= len(sheets) {
		return nil, &FormatError{Reason: fmt.Sprintf("sheet %d not present (workbook has %d)", sheet, len(sheets))}
	}

	grid, err := f.GetRows(sheets[sheet])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[sheet], err)
	}

	return buildRows(grid, headerRow), nil
}

// buildRows converts a raw cell grid into header-keyed rows. Data rows
// shorter than the header are right-padded with empty strings; the header
// is truncated to the widest data row observed.
func buildRows(grid [][]string, headerRow int) []Row {
	if headerRow >= len(grid) {
		return nil
	}

	data := grid[headerRow+1:]

	width := 0
	for _, row := range data {
		if len(row) > width {
			width = len(row)
		}
	}

	header := make([]string, 0, width)
	for i, h := range grid[headerRow] {
		if i >= width {
			break
		}
		header = append(header, strings.TrimSpace(h))
	}

	rows := make([]Row, 0, len(data))
	for i, raw := range data {
		cells := make(map[string]string, len(header))
		for j, name := range header {
			if name == "" {
				continue
			}
			if j < len(raw) {
				cells[name] = raw[j]
			} else {
				cells[name] = ""
			}
		}
		rows = append(rows, Row{
			// 1-based display number: header offset + data index + 2.
			Line:  headerRow + i + 2,
			Cells: cells,
		})
	}
	return rows
}
