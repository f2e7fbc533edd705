// Package document is the boundary between the merge engine and the
// spreadsheet format. The engine only ever sees the Accessor, Document and
// Writer interfaces plus the typed Cell value; everything excelize-specific
// stays behind them.
package document

import (
	"errors"
	"fmt"
)

// OpenErrorKind classifies why a source document could not be opened.
type OpenErrorKind int

const (
	OpenNotFound OpenErrorKind = iota
	OpenAccessDenied
	OpenCorrupt
)

func (k OpenErrorKind) String() string {
	switch k {
	case OpenNotFound:
		return "not found"
	case OpenAccessDenied:
		return "access denied"
	default:
		return "corrupt or unsupported format"
	}
}

// OpenError is returned by Accessor.Open. It is always fatal for the
// document it names, never for the whole run.
type OpenError struct {
	Path string
	Kind OpenErrorKind
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open %s: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// AsOpenError unwraps err into an *OpenError if there is one in the chain.
func AsOpenError(err error) (*OpenError, bool) {
	var oe *OpenError
	ok := errors.As(err, &oe)
	return oe, ok
}

// ErrStopIteration can be returned from a ReadDataRows callback to stop
// reading early without reporting an error.
var ErrStopIteration = errors.New("stop iteration")

// Accessor opens source documents.
type Accessor interface {
	Open(path string) (Document, error)
}

// Document is one open source workbook. Row iteration is forward-only;
// every ReadDataRows call starts a fresh pass over the sheet.
type Document interface {
	// Name is the short identifier used in issues, reports and the
	// anonymization map (the file base name for file-backed documents).
	Name() string
	Path() string
	SheetExists(sheet string) bool
	// ReadHeaderRow returns the raw header strings of row 1.
	ReadHeaderRow(sheet string) ([]string, error)
	// ReadDataRows calls fn for every data row below the header, in sheet
	// order. fn may return ErrStopIteration to stop cleanly.
	ReadDataRows(sheet string, fn func(row Row) error) error
	Close() error
}

// Writer assembles one output workbook.
type Writer interface {
	// WriteSheet adds a sheet with the given header and rows. Sheets must be
	// written one at a time, in final order.
	WriteSheet(sheet string, header []string, rows []Row) error
	// Save finalizes the workbook to its path.
	Save() error
}
