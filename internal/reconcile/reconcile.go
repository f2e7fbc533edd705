// Package reconcile computes, per sheet, the column schema shared by all
// accepted documents and the per-document mapping onto it.
package reconcile

import (
	"github.com/rvmerge/rvmerge/internal/catalog"
	"github.com/rvmerge/rvmerge/internal/config"
	"github.com/rvmerge/rvmerge/internal/document"
	"github.com/rvmerge/rvmerge/internal/validate"
)

// Schema is the reconciled column list of one sheet for one run.
type Schema struct {
	Sheet   string
	Columns []string
	index   map[string]int
}

// ColumnIndex returns the position of a canonical column in the schema, or
// -1 when the column did not survive reconciliation.
func (s *Schema) ColumnIndex(name string) int {
	if i, ok := s.index[name]; ok {
		return i
	}
	return -1
}

// Pair maps one native column index of a document onto a reconciled index.
type Pair struct {
	Src int
	Dst int
}

// Mapping is the column translation for one (document, sheet) pair. Native
// columns with no reconciled counterpart are simply absent from Pairs.
type Mapping struct {
	Source string
	Pairs  []Pair
}

// Outcome is the full reconciliation result.
type Outcome struct {
	// Schemas holds one schema per sheet that at least one accepted document
	// provides, keyed by sheet name.
	Schemas map[string]*Schema
	// Mappings[sheet][documentName] is that document's column mapping.
	Mappings map[string]map[string]Mapping
	// Warnings collects non-fatal findings (mandatory columns missing from
	// some document in mandatory-only mode).
	Warnings []validate.Issue
}

// Options control reconciliation.
type Options struct {
	MandatoryOnly           bool
	IncludeSourceIdentifier bool
	// ExcludedSheets[documentName] lists sheets to leave out of
	// reconciliation for that document (structurally incomplete optional
	// sheets under the ignore policy).
	ExcludedSheets map[string][]string
}

// Reconcile computes the common schema of every catalog sheet across the
// accepted documents. Column order is first-seen order over the documents in
// their given order; the synthetic source column, when requested, goes last.
func Reconcile(cat *catalog.Catalog, docs []document.Document, opts Options) (*Outcome, error) {
	out := &Outcome{
		Schemas:  make(map[string]*Schema),
		Mappings: make(map[string]map[string]Mapping),
	}

	for _, sheet := range cat.SheetNames() {
		type docHeader struct {
			doc       document.Document
			canonical []string // per native index
			names     map[string]bool
		}
		var headers []docHeader

		for _, doc := range docs {
			if isExcluded(opts.ExcludedSheets, doc.Name(), sheet) || !doc.SheetExists(sheet) {
				continue
			}
			raw, err := doc.ReadHeaderRow(sheet)
			if err != nil {
				return nil, err
			}
			h := docHeader{doc: doc, canonical: make([]string, len(raw)), names: make(map[string]bool, len(raw))}
			for i, col := range raw {
				name := cat.CanonicalName(sheet, col)
				h.canonical[i] = name
				h.names[name] = true
			}
			headers = append(headers, h)
		}
		if len(headers) == 0 {
			continue
		}

		// Intersection in first-seen order: walk the first document's
		// columns and keep the ones every other document also has.
		var columns []string
		kept := make(map[string]bool)
		for _, name := range headers[0].canonical {
			if kept[name] {
				continue
			}
			inAll := true
			for _, h := range headers[1:] {
				if !h.names[name] {
					inAll = false
					break
				}
			}
			if inAll {
				kept[name] = true
				columns = append(columns, name)
			}
		}

		if opts.MandatoryOnly {
			mandatory := cat.MandatoryColumns(sheet)
			isMandatory := make(map[string]bool, len(mandatory))
			for _, m := range mandatory {
				isMandatory[m] = true
			}
			var restricted []string
			for _, name := range columns {
				if isMandatory[name] {
					restricted = append(restricted, name)
				}
			}
			for _, m := range mandatory {
				if !kept[m] {
					out.Warnings = append(out.Warnings, validate.Issue{
						Source:  sheet,
						Message: "mandatory column \"" + m + "\" is not present in every document and was excluded",
					})
				}
			}
			columns = restricted
			kept = make(map[string]bool, len(columns))
			for _, name := range columns {
				kept[name] = true
			}
		}

		if opts.IncludeSourceIdentifier && !kept[config.SourceIdentifierColumn] {
			columns = append(columns, config.SourceIdentifierColumn)
		}

		if len(columns) == 0 {
			continue
		}

		schema := &Schema{Sheet: sheet, Columns: columns, index: make(map[string]int, len(columns))}
		for i, name := range columns {
			schema.index[name] = i
		}
		out.Schemas[sheet] = schema

		out.Mappings[sheet] = make(map[string]Mapping, len(headers))
		for _, h := range headers {
			m := Mapping{Source: h.doc.Name()}
			used := make(map[int]bool, len(schema.Columns))
			for src, name := range h.canonical {
				if dst, ok := schema.index[name]; ok && !used[dst] {
					// First native occurrence wins when a document repeats a
					// header name.
					used[dst] = true
					m.Pairs = append(m.Pairs, Pair{Src: src, Dst: dst})
				}
			}
			out.Mappings[sheet][h.doc.Name()] = m
		}
	}

	return out, nil
}

func isExcluded(excluded map[string][]string, doc, sheet string) bool {
	for _, s := range excluded[doc] {
		if s == sheet {
			return true
		}
	}
	return false
}
