package merger

import (
	"fmt"
	"strings"

	"github.com/rvmerge/rvmerge/internal/catalog"
	"github.com/rvmerge/rvmerge/internal/document"
	"github.com/rvmerge/rvmerge/internal/reconcile"
)

const failureReasonColumn = "Failure Reason"

func (o *Orchestrator) writeOutputs(outcome *reconcile.Outcome, ext *extraction, rep *Report) error {
	o.prog.StartPhase("writing", 3)
	defer o.prog.EndPhase()

	if err := o.writeMerged(outcome, ext, rep); err != nil {
		return err
	}
	o.prog.Advance()

	if ext.anon != nil {
		if err := o.writeAnonymizationMap(ext, rep); err != nil {
			return err
		}
	}
	o.prog.Advance()

	if ext.sem != nil && len(ext.sem.Failed) > 0 {
		if err := o.writeFailedRows(outcome, ext, rep); err != nil {
			return err
		}
	}
	o.prog.Advance()
	return nil
}

func (o *Orchestrator) writeMerged(outcome *reconcile.Outcome, ext *extraction, rep *Report) error {
	w := document.NewExcelWriter(o.cfg.OutputPath)
	for _, sheet := range o.cat.SheetNames() {
		schema, ok := outcome.Schemas[sheet]
		if !ok {
			continue
		}
		if err := w.WriteSheet(sheet, schema.Columns, ext.rows[sheet]); err != nil {
			return fmt.Errorf("write merged output: %w", err)
		}
	}
	if err := w.Save(); err != nil {
		return fmt.Errorf("write merged output: %w", err)
	}
	rep.OutputFiles = append(rep.OutputFiles, o.cfg.OutputPath)
	return nil
}

func (o *Orchestrator) writeAnonymizationMap(ext *extraction, rep *Report) error {
	entries := ext.anon.Export()
	if len(entries) == 0 {
		o.log.Info().Msg("anonymization enabled but no values were replaced; map not written")
		return nil
	}

	path := derivedPath(o.cfg.OutputPath, "_anonymization_map")
	w := document.NewExcelWriter(path)
	header := []string{"Source", "Original Value", "Substitute Value"}

	// One sheet per category, entries already grouped by Export.
	for i := 0; i < len(entries); {
		cat := entries[i].Category
		var rows []document.Row
		for ; i < len(entries) && entries[i].Category == cat; i++ {
			rows = append(rows, document.Row{
				document.Text(entries[i].Source),
				document.Text(entries[i].Original),
				document.Text(entries[i].Substitute),
			})
		}
		if err := w.WriteSheet(cat, header, rows); err != nil {
			return fmt.Errorf("write anonymization map: %w", err)
		}
	}
	if err := w.Save(); err != nil {
		return fmt.Errorf("write anonymization map: %w", err)
	}
	rep.OutputFiles = append(rep.OutputFiles, path)
	return nil
}

func (o *Orchestrator) writeFailedRows(outcome *reconcile.Outcome, ext *extraction, rep *Report) error {
	schema := outcome.Schemas[catalog.AnchorSheet]
	header := append(append([]string{}, schema.Columns...), failureReasonColumn)

	rows := make([]document.Row, 0, len(ext.sem.Failed))
	for _, f := range ext.sem.Failed {
		row := make(document.Row, 0, len(f.Row)+1)
		row = append(row, f.Row...)
		for len(row) < len(schema.Columns) {
			row = append(row, document.Empty())
		}
		row = append(row, document.Text(string(f.Reason)))
		rows = append(rows, row)
	}

	path := derivedPath(o.cfg.OutputPath, "_failed_rows")
	w := document.NewExcelWriter(path)
	if err := w.WriteSheet(catalog.AnchorSheet, header, rows); err != nil {
		return fmt.Errorf("write failed rows: %w", err)
	}
	if err := w.Save(); err != nil {
		return fmt.Errorf("write failed rows: %w", err)
	}
	rep.OutputFiles = append(rep.OutputFiles, path)
	return nil
}

func derivedPath(outputPath, suffix string) string {
	return strings.TrimSuffix(outputPath, ".xlsx") + suffix + ".xlsx"
}
