package validate

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/rvmerge/rvmerge/internal/catalog"
	"github.com/rvmerge/rvmerge/internal/document"
)

// Result is the outcome of structural validation for one document.
type Result struct {
	Valid  bool
	Issues []Issue
	// ExcludedSheets lists optional sheets that were present but unusable
	// (missing mandatory columns) and must be left out of reconciliation for
	// this document. Only populated when missing optional sheets are
	// downgraded to warnings.
	ExcludedSheets []string
}

// Engine performs structural validation against the catalog.
type Engine struct {
	cat *catalog.Catalog
	log zerolog.Logger
}

func NewEngine(cat *catalog.Catalog, log zerolog.Logger) *Engine {
	return &Engine{cat: cat, log: log.With().Str("component", "validate").Logger()}
}

// ValidateDocument checks that the document carries the anchor sheet with
// all mandatory columns and at least one data row, and that every other
// catalog sheet is either present and complete, or tolerated per the
// ignoreOptionalSheets policy.
func (e *Engine) ValidateDocument(doc document.Document, ignoreOptionalSheets bool) Result {
	var res Result
	name := doc.Name()
	anchor := catalog.AnchorSheet

	if !doc.SheetExists(anchor) {
		res.Issues = append(res.Issues, fatal(name, "required sheet %q is missing", anchor))
		return res
	}

	if missing, err := e.missingMandatory(doc, anchor); err != nil {
		res.Issues = append(res.Issues, fatal(name, "cannot read %q header: %v", anchor, err))
		return res
	} else if len(missing) > 0 {
		res.Issues = append(res.Issues, fatal(name,
			"sheet %q is missing mandatory columns: %s", anchor, strings.Join(missing, ", ")))
	}

	hasData, err := hasDataRow(doc, anchor)
	if err != nil {
		res.Issues = append(res.Issues, fatal(name, "cannot read %q rows: %v", anchor, err))
		return res
	}
	if !hasData {
		// Never downgraded: a document whose anchor sheet has no data rows
		// carries nothing to merge.
		res.Issues = append(res.Issues, fatal(name, "sheet %q has no data rows", anchor))
	}

	for _, sheet := range e.cat.SheetNames() {
		if sheet == anchor {
			continue
		}
		if !doc.SheetExists(sheet) {
			if ignoreOptionalSheets {
				res.Issues = append(res.Issues, warning(name, "optional sheet %q is missing", sheet))
			} else {
				res.Issues = append(res.Issues, fatal(name, "sheet %q is missing", sheet))
			}
			continue
		}
		missing, err := e.missingMandatory(doc, sheet)
		if err != nil {
			res.Issues = append(res.Issues, fatal(name, "cannot read %q header: %v", sheet, err))
			continue
		}
		if len(missing) == 0 {
			continue
		}
		if ignoreOptionalSheets {
			res.Issues = append(res.Issues, warning(name,
				"sheet %q is missing mandatory columns (%s) and will be skipped",
				sheet, strings.Join(missing, ", ")))
			res.ExcludedSheets = append(res.ExcludedSheets, sheet)
		} else {
			res.Issues = append(res.Issues, fatal(name,
				"sheet %q is missing mandatory columns: %s", sheet, strings.Join(missing, ", ")))
		}
	}

	res.Valid = true
	for _, iss := range res.Issues {
		if iss.Fatal {
			res.Valid = false
			break
		}
	}
	e.log.Debug().Str("document", name).Bool("valid", res.Valid).
		Int("issues", len(res.Issues)).Msg("structural validation finished")
	return res
}

// missingMandatory returns the mandatory columns of a sheet that are absent
// from the document's alias-resolved header row.
func (e *Engine) missingMandatory(doc document.Document, sheet string) ([]string, error) {
	header, err := doc.ReadHeaderRow(sheet)
	if err != nil {
		return nil, err
	}
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[e.cat.CanonicalName(sheet, h)] = true
	}
	var missing []string
	for _, col := range e.cat.MandatoryColumns(sheet) {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	return missing, nil
}

func hasDataRow(doc document.Document, sheet string) (bool, error) {
	found := false
	err := doc.ReadDataRows(sheet, func(document.Row) error {
		found = true
		return document.ErrStopIteration
	})
	return found, err
}
