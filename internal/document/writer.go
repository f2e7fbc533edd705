package document

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	minColWidth = 10
	maxColWidth = 60
)

// ExcelWriter builds one output workbook sheet by sheet and saves it on
// Save. Column widths are fitted to the longest value seen per column.
type ExcelWriter struct {
	path  string
	file  *excelize.File
	wrote bool
}

func NewExcelWriter(path string) *ExcelWriter {
	return &ExcelWriter{path: path, file: excelize.NewFile()}
}

func (w *ExcelWriter) WriteSheet(sheet string, header []string, rows []Row) error {
	if _, err := w.file.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	sw, err := w.file.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("stream writer for %s: %w", sheet, err)
	}

	// Widths must be set before the first row reaches the stream writer.
	widths := fitColumnWidths(header, rows)
	for col, width := range widths {
		if err := sw.SetColWidth(col+1, col+1, width); err != nil {
			return fmt.Errorf("set width of column %d in %s: %w", col+1, sheet, err)
		}
	}

	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := sw.SetRow("A1", headerRow); err != nil {
		return fmt.Errorf("write header of %s: %w", sheet, err)
	}

	for i, row := range rows {
		out := make([]interface{}, len(row))
		for j, cell := range row {
			out[j] = cell.Value()
		}
		ref, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(ref, out); err != nil {
			return fmt.Errorf("write row %d of %s: %w", i+2, sheet, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", sheet, err)
	}
	w.wrote = true
	return nil
}

func (w *ExcelWriter) Save() error {
	if !w.wrote {
		return fmt.Errorf("nothing written to %s", w.path)
	}
	// Drop the default sheet created by the library.
	if idx, err := w.file.GetSheetIndex("Sheet1"); err == nil && idx >= 0 {
		if err := w.file.DeleteSheet("Sheet1"); err != nil {
			return fmt.Errorf("delete default sheet: %w", err)
		}
	}
	if err := w.file.SaveAs(w.path); err != nil {
		return fmt.Errorf("save %s: %w", w.path, err)
	}
	return w.file.Close()
}

func fitColumnWidths(header []string, rows []Row) map[int]float64 {
	maxLen := make(map[int]int)
	for i, h := range header {
		maxLen[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if l := len(cell.String()); l > maxLen[i] {
				maxLen[i] = l
			}
		}
	}
	widths := make(map[int]float64, len(maxLen))
	for col, l := range maxLen {
		w := float64(l + 2)
		if w < minColWidth {
			w = minColWidth
		}
		if w > maxColWidth {
			w = maxColWidth
		}
		widths[col] = w
	}
	return widths
}
