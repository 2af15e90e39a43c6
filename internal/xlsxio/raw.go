package xlsxio

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"
)

// extractRaw reads the target sheet straight out of the xlsx ZIP archive.
// Only xl/sharedStrings.xml and the sheet part are decoded; styles, themes
// and calc chains are never opened, so workbooks with corrupt style parts
// still extract.
func extractRaw(data []byte, sheet, headerRow int) ([]Row, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &FormatError{Reason: "not a zip archive"}
	}

	members := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		members[f.Name] = f
	}

	shared, err := readSharedStrings(members)
	if err != nil {
		return nil, err
	}

	sheetPart, err := resolveSheetPart(members, sheet)
	if err != nil {
		return nil, err
	}

	grid, err := readSheet(sheetPart, shared)
	if err != nil {
		return nil, err
	}

	return buildRows(grid, headerRow), nil
}

// sharedStrings is the xl/sharedStrings.xml document. A string item is
// either a plain <t> or a sequence of rich-text runs; runs are concatenated.
type sharedStrings struct {
	Items []struct {
		T    string `xml:"t"`
		Runs []struct {
			T string `xml:"t"`
		} `xml:"r"`
	} `xml:"si"`
}

func readSharedStrings(members map[string]*zip.File) ([]string, error) {
	f, ok := members["xl/sharedStrings.xml"]
	if !ok {
		// Legal for workbooks that store every cell inline.
		return nil, nil
	}

	var doc sharedStrings
	if err := decodeMember(f, &doc); err != nil {
		return nil, &FormatError{Reason: fmt.Sprintf("shared strings: %v", err)}
	}

	out := make([]string, len(doc.Items))
	for i, si := range doc.Items {
		if len(si.Runs) == 0 {
			out[i] = si.T
			continue
		}
		var b strings.Builder
		for _, run := range si.Runs {
			b.WriteString(run.T)
		}
		out[i] = b.String()
	}
	return out, nil
}

// resolveSheetPart locates the ZIP member for the zero-based sheet index.
// The conventional name xl/worksheets/sheetN.xml is tried first; when a
// writer used non-sequential part names, the workbook's declared sheet
// order plus the relationship table decide.
func resolveSheetPart(members map[string]*zip.File, sheet int) (*zip.File, error) {
	conventional := fmt.Sprintf("xl/worksheets/sheet%d.xml", sheet+1)
	if f, ok := members[conventional]; ok {
		return f, nil
	}

	wb, ok := members["xl/workbook.xml"]
	if !ok {
		return nil, &FormatError{Reason: "missing xl/workbook.xml"}
	}
	var workbook struct {
		Sheets []struct {
			RID string `xml:"id,attr"`
		} `xml:"sheets>sheet"`
	}
	if err := decodeMember(wb, &workbook); err != nil {
		return nil, &FormatError{Reason: fmt.Sprintf("workbook: %v", err)}
	}
	if sheet >= len(workbook.Sheets) {
		return nil, &FormatError{Reason: fmt.Sprintf("sheet %d not present (workbook has %d)", sheet, len(workbook.Sheets))}
	}

	rels, ok := members["xl/_rels/workbook.xml.rels"]
	if !ok {
		return nil, &FormatError{Reason: "missing workbook relationships"}
	}
	var relDoc struct {
		Rels []struct {
			ID     string `xml:"Id,attr"`
			Target string `xml:"Target,attr"`
		} `xml:"Relationship"`
	}
	if err := decodeMember(rels, &relDoc); err != nil {
		return nil, &FormatError{Reason: fmt.Sprintf("workbook relationships: %v", err)}
	}

	rid := workbook.Sheets[sheet].RID
	for _, rel := range relDoc.Rels {
		if rel.ID != rid {
			continue
		}
		target := rel.Target
		if !strings.HasPrefix(target, "/") {
			target = path.Join("xl", target)
		} else {
			target = strings.TrimPrefix(target, "/")
		}
		if f, ok := members[target]; ok {
			return f, nil
		}
	}
	return nil, &FormatError{Reason: fmt.Sprintf("sheet part for index %d not found", sheet)}
}

// rawCell is one <c> element of sheetData. t="s" means V indexes the
// shared-string table; t="inlineStr" carries the text inline.
type rawCell struct {
	Ref    string `xml:"r,attr"`
	Type   string `xml:"t,attr"`
	V      string `xml:"v"`
	Inline string `xml:"is>t"`
}

func readSheet(f *zip.File, shared []string) ([][]string, error) {
	var doc struct {
		Rows []struct {
			Cells []rawCell `xml:"c"`
		} `xml:"sheetData>row"`
	}
	if err := decodeMember(f, &doc); err != nil {
		return nil, &FormatError{Reason: fmt.Sprintf("sheet data: %v", err)}
	}

	grid := make([][]string, 0, len(doc.Rows))
	for _, row := range doc.Rows {
		var cells []string
		for _, c := range row.Cells {
			col := columnIndex(c.Ref)
			if col < 0 {
				col = len(cells)
			}
			for len(cells) <= col {
				cells = append(cells, "")
			}
			cells[col] = cellValue(c, shared)
		}
		grid = append(grid, cells)
	}
	return grid, nil
}

func cellValue(c rawCell, shared []string) string {
	switch c.Type {
	case "s":
		idx := 0
		for _, r := range c.V {
			if r < '0' || r > '9' {
				return ""
			}
			idx = idx*10 + int(r-'0')
		}
		if idx < len(shared) {
			return shared[idx]
		}
		return ""
	case "inlineStr":
		return c.Inline
	default:
		return c.V
	}
}

// columnIndex decodes the column letters of a cell reference like "AB12"
// into a zero-based index by base-26 arithmetic. Returns -1 when the
// reference carries no letters.
func columnIndex(ref string) int {
	n := 0
	seen := false
	for _, r := range ref {
		if r >= 'A' && r <= 'Z' {
			n = n*26 + int(r-'A') + 1
			seen = true
			continue
		}
		if r >= 'a' && r <= 'z' {
			n = n*26 + int(r-'a') + 1
			seen = true
			continue
		}
		break
	}
	if !seen {
		return -1
	}
	return n - 1
}

func decodeMember(f *zip.File, v any) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return err
	}
	return xml.Unmarshal(data, v)
}
