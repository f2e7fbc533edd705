// Package merger drives a whole merge run: structural validation of every
// source document, schema reconciliation, row extraction with anonymization
// and referential filtering, and output assembly.
package merger

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rvmerge/rvmerge/internal/anonymize"
	"github.com/rvmerge/rvmerge/internal/catalog"
	"github.com/rvmerge/rvmerge/internal/config"
	"github.com/rvmerge/rvmerge/internal/document"
	"github.com/rvmerge/rvmerge/internal/progress"
	"github.com/rvmerge/rvmerge/internal/reconcile"
	"github.com/rvmerge/rvmerge/internal/validate"
)

var errAnchorCap = errors.New("anchor row cap reached")

// Orchestrator owns one merge run. It is not safe for concurrent use; all
// document I/O is strictly sequential.
type Orchestrator struct {
	cfg  *config.Config
	cat  *catalog.Catalog
	acc  document.Accessor
	log  zerolog.Logger
	prog progress.Reporter

	state State
	// documentName -> sheets excluded from reconciliation for that document
	excludedSheets map[string][]string
}

func New(cfg *config.Config, cat *catalog.Catalog, acc document.Accessor, log zerolog.Logger, prog progress.Reporter) *Orchestrator {
	if prog == nil {
		prog = progress.Nop{}
	}
	return &Orchestrator{
		cfg:  cfg,
		cat:  cat,
		acc:  acc,
		log:  log.With().Str("component", "merger").Logger(),
		prog: prog,
	}
}

// State returns the current phase.
func (o *Orchestrator) State() State { return o.state }

// Run executes the full pipeline. The returned report is populated as far
// as the run got, also on failure. Cancellation is honored at document and
// row boundaries.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	rep := &Report{
		RunID:  uuid.NewString(),
		Sheets: make(map[string]*SheetStats),
	}
	finish := func(err error) (*Report, error) {
		rep.Duration = time.Since(start)
		rep.DurationStr = rep.Duration.String()
		if err != nil {
			o.state = StateFailed
			o.log.Error().Err(err).Str("run_id", rep.RunID).Msg("merge run failed")
			return rep, err
		}
		o.state = StateDone
		rep.Success = true
		o.log.Info().Str("run_id", rep.RunID).Dur("duration", rep.Duration).Msg("merge run finished")
		return rep, nil
	}

	o.log.Info().Str("run_id", rep.RunID).Int("inputs", len(o.cfg.Inputs)).Msg("merge run started")

	files, err := o.cfg.ExpandInputs()
	if err != nil {
		return finish(err)
	}

	// Validating
	o.state = StateValidating
	docs, err := o.validateDocuments(ctx, files, rep)
	defer func() {
		for _, d := range docs {
			_ = d.Close()
		}
	}()
	if err != nil {
		return finish(err)
	}
	for _, d := range docs {
		rep.Documents = append(rep.Documents, d.Name())
	}

	// Reconciling
	o.state = StateReconciling
	o.prog.StartPhase("reconciling", 1)
	outcome, err := reconcile.Reconcile(o.cat, docs, reconcile.Options{
		MandatoryOnly:           o.cfg.OnlyMandatoryColumns,
		IncludeSourceIdentifier: o.cfg.IncludeSourceIdentifier,
		ExcludedSheets:          o.excludedSheets,
	})
	o.prog.Advance()
	o.prog.EndPhase()
	if err != nil {
		return finish(err)
	}
	rep.Issues = append(rep.Issues, outcome.Warnings...)
	if len(outcome.Schemas) == 0 {
		return finish(fmt.Errorf("reconciliation produced no columns for any sheet"))
	}
	if _, ok := outcome.Schemas[catalog.AnchorSheet]; !ok {
		return finish(fmt.Errorf("reconciliation produced no columns for the %s sheet", catalog.AnchorSheet))
	}

	// Extracting
	o.state = StateExtracting
	ext, err := o.extract(ctx, docs, outcome, rep)
	if err != nil {
		return finish(err)
	}

	// Writing
	o.state = StateWriting
	if err := o.writeOutputs(outcome, ext, rep); err != nil {
		return finish(err)
	}

	return finish(nil)
}

func (o *Orchestrator) validateDocuments(ctx context.Context, files []string, rep *Report) ([]document.Document, error) {
	o.prog.StartPhase("validating", len(files))
	defer o.prog.EndPhase()

	engine := validate.NewEngine(o.cat, o.log)
	o.excludedSheets = make(map[string][]string)

	var docs []document.Document
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return docs, err
		}
		name := filepath.Base(path)

		doc, err := o.acc.Open(path)
		if err != nil {
			rep.Issues = append(rep.Issues, validate.Issue{Source: name, Fatal: true, Message: err.Error()})
			if !o.cfg.SkipInvalidDocuments {
				return docs, fmt.Errorf("cannot open %s (enable skip-invalid-documents to continue without it): %w", name, err)
			}
			o.log.Warn().Str("document", name).Err(err).Msg("document skipped: cannot open")
			rep.Skipped = append(rep.Skipped, name)
			o.prog.Advance()
			continue
		}

		res := engine.ValidateDocument(doc, o.cfg.IgnoreMissingOptionalSheets)
		rep.Issues = append(rep.Issues, res.Issues...)
		if !res.Valid {
			_ = doc.Close()
			if !o.cfg.SkipInvalidDocuments {
				return docs, fmt.Errorf("%s failed structural validation (enable skip-invalid-documents to continue without it)", name)
			}
			o.log.Warn().Str("document", name).Msg("document skipped: structural validation failed")
			rep.Skipped = append(rep.Skipped, name)
			o.prog.Advance()
			continue
		}
		if len(res.ExcludedSheets) > 0 {
			o.excludedSheets[doc.Name()] = res.ExcludedSheets
		}
		docs = append(docs, doc)
		o.prog.Advance()
	}

	if len(docs) == 0 {
		return docs, fmt.Errorf("no valid input documents remain after validation")
	}
	return docs, nil
}

// extraction holds everything the writing phase needs.
type extraction struct {
	rows map[string][]document.Row
	anon *anonymize.Engine
	sem  *validate.SemanticResult
}

func (o *Orchestrator) extract(ctx context.Context, docs []document.Document, outcome *reconcile.Outcome, rep *Report) (*extraction, error) {
	ext := &extraction{rows: make(map[string][]document.Row)}
	if o.cfg.Anonymize {
		ext.anon = anonymize.New()
	}

	anchorSchema := outcome.Schemas[catalog.AnchorSheet]
	var checker *validate.RowChecker
	if o.cfg.EnableDomainValidation {
		checker = validate.NewRowChecker(
			anchorSchema.ColumnIndex(catalog.VMKeyColumn),
			anchorSchema.ColumnIndex(catalog.OSColumn),
		)
	}

	filterActive := o.cfg.MaxAnchorRows > 0
	vmKeys := make(map[string]struct{})
	hostKeys := make(map[string]struct{})

	o.prog.StartPhase("extracting", len(outcome.Schemas)*len(docs))
	defer o.prog.EndPhase()

	// Catalog order keeps the anchor sheet first, which referential
	// filtering depends on.
	for _, sheet := range o.cat.SheetNames() {
		schema, ok := outcome.Schemas[sheet]
		if !ok {
			continue
		}
		isAnchor := sheet == catalog.AnchorSheet
		catSchema, _ := o.cat.Schema(sheet)
		stats := &SheetStats{}
		rep.Sheets[sheet] = stats

		mandatoryIdx := make([]int, 0, len(catSchema.Mandatory))
		for _, col := range catSchema.Mandatory {
			if i := schema.ColumnIndex(col); i >= 0 {
				mandatoryIdx = append(mandatoryIdx, i)
			}
		}

		type anonColumn struct {
			idx int
			cat catalog.Category
		}
		var anonCols []anonColumn
		if ext.anon != nil {
			for i, col := range schema.Columns {
				if c, ok := o.cat.CategoryFor(col); ok {
					anonCols = append(anonCols, anonColumn{idx: i, cat: c})
				}
			}
		}

		linkIdx := -1
		if !isAnchor && filterActive && catSchema.LinkScope != catalog.LinkNone {
			linkIdx = schema.ColumnIndex(catSchema.LinkColumn)
		}
		anchorVMIdx := anchorSchema.ColumnIndex(catalog.VMKeyColumn)
		anchorHostIdx := anchorSchema.ColumnIndex(catalog.HostKeyColumn)
		srcIdx := schema.ColumnIndex(config.SourceIdentifierColumn)

		for _, doc := range docs {
			mapping, ok := outcome.Mappings[sheet][doc.Name()]
			if !ok {
				o.prog.Advance()
				continue
			}
			stats.Documents++
			rowNo := 1 // header is row 1

			err := doc.ReadDataRows(sheet, func(raw document.Row) error {
				if err := ctx.Err(); err != nil {
					return err
				}
				rowNo++

				if isAnchor && filterActive && len(ext.rows[sheet]) >= o.cfg.MaxAnchorRows {
					return errAnchorCap
				}

				row := make(document.Row, len(schema.Columns))
				for i := range row {
					row[i] = document.Empty()
				}
				for _, p := range mapping.Pairs {
					if p.Src < len(raw) {
						row[p.Dst] = raw[p.Src]
					}
				}
				if o.cfg.IncludeSourceIdentifier && srcIdx >= 0 {
					row[srcIdx] = document.Text(doc.Name())
				}

				// Referential filtering compares original values, before any
				// anonymization, so keys line up across sheets.
				if linkIdx >= 0 && !row[linkIdx].IsBlank() {
					keys := vmKeys
					if catSchema.LinkScope == catalog.LinkHost {
						keys = hostKeys
					}
					if _, ok := keys[row[linkIdx].String()]; !ok {
						stats.FilteredByLink++
						return nil
					}
				}

				if i := validate.MissingMandatoryIndex(row, mandatoryIdx); i >= 0 {
					iss := validate.Issue{
						Source: doc.Name(),
						Message: fmt.Sprintf("%s row %d: mandatory column %q is empty",
							sheet, rowNo, schema.Columns[i]),
					}
					rep.Issues = append(rep.Issues, iss)
					if o.cfg.SkipRowsWithEmptyMandatoryValues {
						stats.DroppedEmptyMandatory++
						return nil
					}
				}

				var vmKey, hostKey string
				if isAnchor && filterActive {
					if anchorVMIdx >= 0 && !row[anchorVMIdx].IsBlank() {
						vmKey = row[anchorVMIdx].String()
					}
					if anchorHostIdx >= 0 && !row[anchorHostIdx].IsBlank() {
						hostKey = row[anchorHostIdx].String()
					}
				}

				// Anonymize before the domain check so diverted rows land in
				// the failed-rows workbook already pseudonymized.
				for _, ac := range anonCols {
					cell := row[ac.idx]
					if cell.IsBlank() {
						continue
					}
					row[ac.idx] = document.Text(
						ext.anon.Value(ac.cat.Name, ac.cat.Prefix, doc.Name(), cell.String()))
				}

				if isAnchor && checker != nil && !checker.Check(doc.Name(), row) {
					return nil
				}

				if isAnchor && filterActive {
					if vmKey != "" {
						vmKeys[vmKey] = struct{}{}
					}
					if hostKey != "" {
						hostKeys[hostKey] = struct{}{}
					}
				}

				ext.rows[sheet] = append(ext.rows[sheet], row)
				stats.Rows++
				return nil
			})
			if errors.Is(err, errAnchorCap) {
				rep.Issues = append(rep.Issues, validate.Issue{
					Source: doc.Name(),
					Message: fmt.Sprintf("anchor row cap of %d reached; remaining %s rows were not merged",
						o.cfg.MaxAnchorRows, sheet),
				})
				o.log.Warn().Str("document", doc.Name()).Int("cap", o.cfg.MaxAnchorRows).
					Msg("anchor row cap reached")
			} else if err != nil {
				return nil, err
			}
			o.prog.Advance()
		}

		o.log.Debug().Str("sheet", sheet).Int("rows", stats.Rows).
			Int("documents", stats.Documents).Msg("sheet extracted")
	}

	if checker != nil {
		ext.sem = checker.Result()
		rep.Semantic = ext.sem
	}
	if ext.anon != nil {
		rep.Anonymized = ext.anon.Count()
	}
	return ext, nil
}
