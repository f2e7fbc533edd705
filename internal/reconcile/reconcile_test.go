package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rvmerge/rvmerge/internal/catalog"
	"github.com/rvmerge/rvmerge/internal/config"
	"github.com/rvmerge/rvmerge/internal/document"
)

func docWithAnchor(path string, header []string) *document.MemDocument {
	return document.NewMemDocument(path).AddSheet(catalog.AnchorSheet, header)
}

func TestReconcile_IntersectionExcludesExtraColumn(t *testing.T) {
	a := docWithAnchor("a.xlsx", []string{"VM", "CPUs", "Memory", "OS according to the configuration file"})
	b := docWithAnchor("b.xlsx", []string{"VM", "CPUs", "Memory", "OS according to the configuration file", "ExtraCol"})

	out, err := Reconcile(catalog.Default(), []document.Document{a, b}, Options{})
	require.NoError(t, err)

	schema := out.Schemas[catalog.AnchorSheet]
	require.NotNil(t, schema)
	assert.Equal(t,
		[]string{"VM", "CPUs", "Memory", "OS according to the configuration file"},
		schema.Columns)
	assert.Equal(t, -1, schema.ColumnIndex("ExtraCol"))
}

func TestReconcile_FirstSeenOrder(t *testing.T) {
	a := docWithAnchor("a.xlsx", []string{"Memory", "VM", "CPUs"})
	b := docWithAnchor("b.xlsx", []string{"CPUs", "Memory", "VM"})

	out, err := Reconcile(catalog.Default(), []document.Document{a, b}, Options{})
	require.NoError(t, err)

	// Order follows the first document's header, not any sort.
	assert.Equal(t, []string{"Memory", "VM", "CPUs"}, out.Schemas[catalog.AnchorSheet].Columns)
}

func TestReconcile_AliasesJoinTheIntersection(t *testing.T) {
	a := docWithAnchor("a.xlsx", []string{"VM", "In Use MiB", "OS according to the configuration file"})
	b := docWithAnchor("b.xlsx", []string{"VM", "In Use MB", "OS"})

	out, err := Reconcile(catalog.Default(), []document.Document{a, b}, Options{})
	require.NoError(t, err)

	schema := out.Schemas[catalog.AnchorSheet]
	assert.Equal(t,
		[]string{"VM", "In Use MiB", "OS according to the configuration file"},
		schema.Columns)

	// The second document's native indexes map onto the canonical schema.
	m := out.Mappings[catalog.AnchorSheet]["b.xlsx"]
	assert.ElementsMatch(t, []Pair{{Src: 0, Dst: 0}, {Src: 1, Dst: 1}, {Src: 2, Dst: 2}}, m.Pairs)
}

func TestReconcile_MandatoryOnly(t *testing.T) {
	cat := catalog.Default()
	full := append([]string{}, cat.MandatoryColumns(catalog.AnchorSheet)...)
	full = append(full, "DNS Name") // optional, present in both

	a := docWithAnchor("a.xlsx", full)
	b := docWithAnchor("b.xlsx", full[:len(full)-1]) // still all mandatory

	out, err := Reconcile(cat, []document.Document{a, b}, Options{MandatoryOnly: true})
	require.NoError(t, err)

	schema := out.Schemas[catalog.AnchorSheet]
	assert.ElementsMatch(t, cat.MandatoryColumns(catalog.AnchorSheet), schema.Columns)
	assert.Equal(t, -1, schema.ColumnIndex("DNS Name"))
	assert.Empty(t, out.Warnings)
}

func TestReconcile_MandatoryOnly_MissingColumnWarns(t *testing.T) {
	cat := catalog.Default()
	full := cat.MandatoryColumns(catalog.AnchorSheet)

	a := docWithAnchor("a.xlsx", full)
	b := docWithAnchor("b.xlsx", full[:len(full)-1]) // one mandatory column short

	out, err := Reconcile(cat, []document.Document{a, b}, Options{MandatoryOnly: true})
	require.NoError(t, err)

	schema := out.Schemas[catalog.AnchorSheet]
	assert.Len(t, schema.Columns, len(full)-1)
	require.Len(t, out.Warnings, 1)
	assert.False(t, out.Warnings[0].Fatal)
	assert.Contains(t, out.Warnings[0].Message, full[len(full)-1])
}

func TestReconcile_SourceIdentifierAppendedLast(t *testing.T) {
	a := docWithAnchor("a.xlsx", []string{"VM", "CPUs"})
	b := docWithAnchor("b.xlsx", []string{"VM", "CPUs"})

	out, err := Reconcile(catalog.Default(), []document.Document{a, b},
		Options{IncludeSourceIdentifier: true})
	require.NoError(t, err)

	schema := out.Schemas[catalog.AnchorSheet]
	assert.Equal(t, []string{"VM", "CPUs", config.SourceIdentifierColumn}, schema.Columns)

	// No document maps onto the synthetic column.
	for _, m := range out.Mappings[catalog.AnchorSheet] {
		for _, p := range m.Pairs {
			assert.NotEqual(t, schema.ColumnIndex(config.SourceIdentifierColumn), p.Dst)
		}
	}
}

func TestReconcile_ExcludedSheetSkipsDocument(t *testing.T) {
	a := document.NewMemDocument("a.xlsx").
		AddSheet(catalog.AnchorSheet, []string{"VM"}).
		AddSheet("vPartition", []string{"VM", "Disk"})
	b := document.NewMemDocument("b.xlsx").
		AddSheet(catalog.AnchorSheet, []string{"VM"}).
		AddSheet("vPartition", []string{"VM", "Disk", "Capacity MiB"})

	out, err := Reconcile(catalog.Default(), []document.Document{a, b}, Options{
		ExcludedSheets: map[string][]string{"a.xlsx": {"vPartition"}},
	})
	require.NoError(t, err)

	// Only b participates, so its full column set survives.
	schema := out.Schemas["vPartition"]
	require.NotNil(t, schema)
	assert.Equal(t, []string{"VM", "Disk", "Capacity MiB"}, schema.Columns)
	_, hasA := out.Mappings["vPartition"]["a.xlsx"]
	assert.False(t, hasA)
}

func TestReconcile_SheetAbsentEverywhereOmitted(t *testing.T) {
	a := docWithAnchor("a.xlsx", []string{"VM"})

	out, err := Reconcile(catalog.Default(), []document.Document{a}, Options{})
	require.NoError(t, err)

	_, ok := out.Schemas["vHost"]
	assert.False(t, ok)
}

func TestReconcile_DisjointHeadersYieldNoSchema(t *testing.T) {
	a := docWithAnchor("a.xlsx", []string{"VM"})
	b := docWithAnchor("b.xlsx", []string{"CPUs"})

	out, err := Reconcile(catalog.Default(), []document.Document{a, b}, Options{})
	require.NoError(t, err)

	_, ok := out.Schemas[catalog.AnchorSheet]
	assert.False(t, ok)
}
