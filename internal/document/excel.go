package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ExcelAccessor is the xlsx-backed Accessor.
type ExcelAccessor struct{}

func NewExcelAccessor() *ExcelAccessor { return &ExcelAccessor{} }

func (a *ExcelAccessor) Open(path string) (Document, error) {
	if info, err := os.Stat(path); err != nil {
		kind := OpenCorrupt
		if os.IsNotExist(err) {
			kind = OpenNotFound
		} else if os.IsPermission(err) {
			kind = OpenAccessDenied
		}
		return nil, &OpenError{Path: path, Kind: kind, Err: err}
	} else if info.IsDir() {
		return nil, &OpenError{Path: path, Kind: OpenCorrupt, Err: fmt.Errorf("is a directory")}
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		kind := OpenCorrupt
		if os.IsPermission(err) {
			kind = OpenAccessDenied
		}
		return nil, &OpenError{Path: path, Kind: kind, Err: err}
	}
	return &excelDocument{
		path:       path,
		file:       f,
		dateStyles: make(map[int]bool),
	}, nil
}

type excelDocument struct {
	path string
	file *excelize.File
	// style ID -> carries a date number format
	dateStyles map[int]bool
}

func (d *excelDocument) Name() string { return filepath.Base(d.path) }
func (d *excelDocument) Path() string { return d.path }
func (d *excelDocument) Close() error { return d.file.Close() }

func (d *excelDocument) SheetExists(sheet string) bool {
	idx, err := d.file.GetSheetIndex(sheet)
	return err == nil && idx >= 0
}

func (d *excelDocument) ReadHeaderRow(sheet string) ([]string, error) {
	rows, err := d.file.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read header of %s!%s: %w", d.Name(), sheet, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, nil
	}
	header, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read header of %s!%s: %w", d.Name(), sheet, err)
	}
	return header, nil
}

func (d *excelDocument) ReadDataRows(sheet string, fn func(row Row) error) error {
	rows, err := d.file.Rows(sheet)
	if err != nil {
		return fmt.Errorf("read rows of %s!%s: %w", d.Name(), sheet, err)
	}
	defer rows.Close()

	rowIdx := 0
	for rows.Next() {
		rowIdx++
		if rowIdx == 1 {
			continue // header
		}
		raw, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return fmt.Errorf("read row %d of %s!%s: %w", rowIdx, d.Name(), sheet, err)
		}
		row := make(Row, len(raw))
		for i, val := range raw {
			row[i] = d.typedCell(sheet, i+1, rowIdx, val)
		}
		if err := fn(row); err != nil {
			if err == ErrStopIteration {
				return nil
			}
			return err
		}
	}
	return rows.Error()
}

// typedCell converts a raw cell string into the typed variant, using the
// stored cell type where the file carries one and the number format of the
// cell style otherwise.
func (d *excelDocument) typedCell(sheet string, col, rowIdx int, raw string) Cell {
	if raw == "" {
		return Empty()
	}

	ref, err := excelize.CoordinatesToCellName(col, rowIdx)
	if err != nil {
		return Text(raw)
	}

	cellType, _ := d.file.GetCellType(sheet, ref)
	switch cellType {
	case excelize.CellTypeBool:
		return Bool(raw == "1" || strings.EqualFold(raw, "true"))
	case excelize.CellTypeDate:
		return d.dateCell(raw)
	case excelize.CellTypeNumber:
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return Number(n)
		}
		return Text(raw)
	case excelize.CellTypeInlineString, excelize.CellTypeSharedString:
		return Text(raw)
	}

	// Plain numeric cells usually have no explicit type attribute; decide by
	// the style's number format, then by the value shape.
	if d.isDateStyle(sheet, ref) {
		return d.dateCell(raw)
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return Number(n)
	}
	return Text(raw)
}

func (d *excelDocument) dateCell(raw string) Cell {
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Text(raw)
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return Number(serial)
	}
	return Date(t)
}

func (d *excelDocument) isDateStyle(sheet, ref string) bool {
	styleID, err := d.file.GetCellStyle(sheet, ref)
	if err != nil {
		return false
	}
	if isDate, ok := d.dateStyles[styleID]; ok {
		return isDate
	}
	isDate := false
	if style, err := d.file.GetStyle(styleID); err == nil {
		isDate = isDateFormat(style.NumFmt)
	}
	d.dateStyles[styleID] = isDate
	return isDate
}

// Built-in number formats that render as dates or times.
func isDateFormat(fmtID int) bool {
	switch fmtID {
	case 14, 15, 16, 17, 22, 27, 30, 36, 45, 46, 47:
		return true
	}
	return false
}
