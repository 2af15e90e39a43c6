package imports

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
)

// writeReport serializes the failed rows of one import into an xlsx file
// in the reports directory and returns the generated file name. An empty
// error list produces no file.
func writeReport(dir, source string, rowErrs []RowError) (string, error) {
	if len(rowErrs) == 0 {
		return "", nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("reports dir: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	if err := f.SetSheetName(sheet, "Ошибки"); err != nil {
		return "", err
	}

	headers := []string{"Строка", "Ключ", "Ошибка"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return "", err
		}
		if err := f.SetCellValue("Ошибки", cell, h); err != nil {
			return "", err
		}
	}

	for i, re := range rowErrs {
		values := []any{re.Line, re.Key, re.Reason}
		for j, v := range values {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return "", err
			}
			if err := f.SetCellValue("Ошибки", cell, v); err != nil {
				return "", err
			}
		}
	}

	name := fmt.Sprintf("errors_%s_%s.xlsx", source, time.Now().Format("20060102_150405"))
	if err := f.SaveAs(filepath.Join(dir, name)); err != nil {
		return "", fmt.Errorf("write error report: %w", err)
	}
	return name, nil
}
