package document

import (
	"strconv"
	"strings"
	"time"
)

// CellKind discriminates the closed set of cell value types carried through
// the merge. There is no "any" kind: a cell is exactly one of these.
type CellKind int

const (
	KindEmpty CellKind = iota
	KindText
	KindNumber
	KindBool
	KindDate
)

// Cell is one typed spreadsheet value.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
	Bool   bool
	Date   time.Time
}

// Row is one data row of a sheet.
type Row []Cell

func Empty() Cell           { return Cell{Kind: KindEmpty} }
func Text(s string) Cell    { return Cell{Kind: KindText, Text: s} }
func Number(f float64) Cell { return Cell{Kind: KindNumber, Number: f} }
func Bool(b bool) Cell      { return Cell{Kind: KindBool, Bool: b} }
func Date(t time.Time) Cell { return Cell{Kind: KindDate, Date: t} }

// IsBlank reports whether the cell carries no usable value: the empty kind,
// or text that is empty after trimming.
func (c Cell) IsBlank() bool {
	switch c.Kind {
	case KindEmpty:
		return true
	case KindText:
		return strings.TrimSpace(c.Text) == ""
	default:
		return false
	}
}

// String renders the cell for display, key comparison, and anonymization
// lookup. Blank cells render as "".
func (c Cell) String() string {
	switch c.Kind {
	case KindText:
		return c.Text
	case KindNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(c.Bool)
	case KindDate:
		return c.Date.Format(time.RFC3339)
	default:
		return ""
	}
}

// Value returns the cell as the dynamic type the spreadsheet writer expects.
// Empty cells map to nil.
func (c Cell) Value() any {
	switch c.Kind {
	case KindText:
		return c.Text
	case KindNumber:
		return c.Number
	case KindBool:
		return c.Bool
	case KindDate:
		return c.Date
	default:
		return nil
	}
}
