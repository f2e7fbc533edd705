package document

import (
	"fmt"
	"path/filepath"
)

// MemSheet is one sheet of an in-memory document.
type MemSheet struct {
	Header []string
	Rows   []Row
}

// MemDocument is an in-memory Document, used by tests and by any caller
// that assembles documents without a backing file.
type MemDocument struct {
	DocPath string
	Sheets  map[string]*MemSheet
	order   []string
}

func NewMemDocument(path string) *MemDocument {
	return &MemDocument{DocPath: path, Sheets: make(map[string]*MemSheet)}
}

// AddSheet registers a sheet; returns the document for chaining.
func (d *MemDocument) AddSheet(name string, header []string, rows ...Row) *MemDocument {
	d.Sheets[name] = &MemSheet{Header: header, Rows: rows}
	d.order = append(d.order, name)
	return d
}

func (d *MemDocument) Name() string { return filepath.Base(d.DocPath) }
func (d *MemDocument) Path() string { return d.DocPath }
func (d *MemDocument) Close() error { return nil }

func (d *MemDocument) SheetExists(sheet string) bool {
	_, ok := d.Sheets[sheet]
	return ok
}

func (d *MemDocument) ReadHeaderRow(sheet string) ([]string, error) {
	s, ok := d.Sheets[sheet]
	if !ok {
		return nil, fmt.Errorf("sheet %q does not exist in %s", sheet, d.Name())
	}
	return s.Header, nil
}

func (d *MemDocument) ReadDataRows(sheet string, fn func(row Row) error) error {
	s, ok := d.Sheets[sheet]
	if !ok {
		return fmt.Errorf("sheet %q does not exist in %s", sheet, d.Name())
	}
	for _, row := range s.Rows {
		if err := fn(row); err != nil {
			if err == ErrStopIteration {
				return nil
			}
			return err
		}
	}
	return nil
}

// MemAccessor serves MemDocuments by path.
type MemAccessor struct {
	Docs map[string]*MemDocument
}

func NewMemAccessor(docs ...*MemDocument) *MemAccessor {
	a := &MemAccessor{Docs: make(map[string]*MemDocument, len(docs))}
	for _, d := range docs {
		a.Docs[d.DocPath] = d
	}
	return a
}

func (a *MemAccessor) Open(path string) (Document, error) {
	d, ok := a.Docs[path]
	if !ok {
		return nil, &OpenError{Path: path, Kind: OpenNotFound, Err: fmt.Errorf("no such document")}
	}
	return d, nil
}
