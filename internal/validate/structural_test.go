package validate

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rvmerge/rvmerge/internal/catalog"
	"github.com/rvmerge/rvmerge/internal/document"
)

var anchorHeader = []string{
	"VM", "Powerstate", "Template", "CPUs", "Memory", "In Use MiB",
	"OS according to the configuration file", "VM UUID", "Host",
}

func anchorRow() document.Row {
	return document.Row{
		document.Text("srv1"), document.Text("poweredOn"), document.Bool(false),
		document.Number(4), document.Number(4096), document.Number(2048),
		document.Text("Ubuntu"), document.Text("uuid-1"), document.Text("esx1"),
	}
}

// completeDoc builds a document carrying every catalog sheet with its
// mandatory columns and one data row.
func completeDoc(cat *catalog.Catalog, path string) *document.MemDocument {
	doc := document.NewMemDocument(path)
	for _, sheet := range cat.SheetNames() {
		cols := cat.MandatoryColumns(sheet)
		row := make(document.Row, len(cols))
		for i := range cols {
			row[i] = document.Text("v")
		}
		if sheet == catalog.AnchorSheet {
			doc.AddSheet(sheet, anchorHeader, anchorRow())
			continue
		}
		doc.AddSheet(sheet, cols, row)
	}
	return doc
}

func newTestEngine() *Engine {
	return NewEngine(catalog.Default(), zerolog.Nop())
}

func TestValidateDocument_Complete(t *testing.T) {
	cat := catalog.Default()
	res := newTestEngine().ValidateDocument(completeDoc(cat, "a.xlsx"), false)

	assert.True(t, res.Valid)
	assert.Empty(t, res.Issues)
	assert.Empty(t, res.ExcludedSheets)
}

func TestValidateDocument_MissingAnchorSheet(t *testing.T) {
	doc := document.NewMemDocument("a.xlsx").
		AddSheet("vCPU", []string{"VM", "VM UUID", "CPUs"})

	res := newTestEngine().ValidateDocument(doc, true)
	require.False(t, res.Valid)
	require.Len(t, res.Issues, 1)
	assert.True(t, res.Issues[0].Fatal)
	assert.Contains(t, res.Issues[0].Message, "vInfo")
}

func TestValidateDocument_MissingMandatoryAnchorColumn(t *testing.T) {
	header := anchorHeader[:len(anchorHeader)-1] // drop Host
	doc := completeDoc(catalog.Default(), "a.xlsx")
	doc.Sheets[catalog.AnchorSheet] = &document.MemSheet{
		Header: header,
		Rows:   []document.Row{anchorRow()[:len(header)]},
	}

	res := newTestEngine().ValidateDocument(doc, false)
	assert.False(t, res.Valid)
	found := false
	for _, iss := range res.Issues {
		if iss.Fatal && iss.Message != "" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidateDocument_AliasResolvesMandatoryColumn(t *testing.T) {
	// Old export names the OS column just "OS"; the alias must satisfy the
	// mandatory check.
	header := append([]string{}, anchorHeader...)
	header[6] = "OS"
	doc := completeDoc(catalog.Default(), "a.xlsx")
	doc.Sheets[catalog.AnchorSheet].Header = header

	res := newTestEngine().ValidateDocument(doc, false)
	assert.True(t, res.Valid)
}

func TestValidateDocument_EmptyAnchorSheet(t *testing.T) {
	doc := completeDoc(catalog.Default(), "a.xlsx")
	doc.Sheets[catalog.AnchorSheet].Rows = nil

	// Never downgraded, regardless of the ignore policy.
	res := newTestEngine().ValidateDocument(doc, true)
	assert.False(t, res.Valid)
}

func TestValidateDocument_MissingOptionalSheet(t *testing.T) {
	doc := completeDoc(catalog.Default(), "a.xlsx")
	delete(doc.Sheets, "vSnapshot")

	strict := newTestEngine().ValidateDocument(doc, false)
	assert.False(t, strict.Valid)

	relaxed := newTestEngine().ValidateDocument(doc, true)
	assert.True(t, relaxed.Valid)
	require.Len(t, relaxed.Issues, 1)
	assert.False(t, relaxed.Issues[0].Fatal)
}

func TestValidateDocument_IncompleteOptionalSheetExcluded(t *testing.T) {
	doc := completeDoc(catalog.Default(), "a.xlsx")
	doc.Sheets["vPartition"].Header = []string{"VM", "Disk"} // missing columns

	relaxed := newTestEngine().ValidateDocument(doc, true)
	assert.True(t, relaxed.Valid)
	assert.Equal(t, []string{"vPartition"}, relaxed.ExcludedSheets)

	strict := newTestEngine().ValidateDocument(doc, false)
	assert.False(t, strict.Valid)
}
