// Package catalog holds the static knowledge about RVTools-style workbooks:
// which sheets are recognized, which columns each sheet must carry, how
// header names from older export versions map onto the canonical names, and
// which columns are sensitive or act as linking keys between sheets.
//
// A Catalog is built once at startup and never mutated afterwards, so it is
// safe to share across everything that reads it.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AnchorSheet is the one sheet every source document must contain.
const AnchorSheet = "vInfo"

// Columns of the anchor sheet used to propagate row filtering into
// dependent sheets.
const (
	VMKeyColumn   = "VM UUID"
	HostKeyColumn = "Host"
)

// OSColumn is the canonical guest OS column of the anchor sheet; older
// exports name it plain "OS".
const OSColumn = "OS according to the configuration file"

// LinkScope says which anchor-sheet column gates a dependent sheet's rows.
type LinkScope int

const (
	LinkNone LinkScope = iota
	LinkVM
	LinkHost
)

// SheetSchema describes one recognized sheet.
type SheetSchema struct {
	Name       string
	Required   bool
	Mandatory  []string
	Aliases    map[string]string
	LinkColumn string
	LinkScope  LinkScope
}

// Category is one class of sensitive values replaced during anonymization.
type Category struct {
	Name    string
	Prefix  string
	Columns []string
}

// Catalog is the full sheet/column knowledge table for one run.
type Catalog struct {
	order      []string
	sheets     map[string]*SheetSchema
	categories []Category
	// canonical column name -> category index, for O(1) lookup
	columnCategory map[string]int
}

// Renames between RVTools releases; applied to every sheet on top of any
// sheet-specific aliases.
var commonAliases = map[string]string{
	"In Use MB":      "In Use MiB",
	"Provisioned MB": "Provisioned MiB",
	"Unshared MB":    "Unshared MiB",
	"Size MB":        "Size MiB",
	"Capacity MB":    "Capacity MiB",
	"Consumed MB":    "Consumed MiB",
	"Free MB":        "Free MiB",
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c := &Catalog{
		sheets:         make(map[string]*SheetSchema),
		columnCategory: make(map[string]int),
	}

	c.add(&SheetSchema{
		Name:     AnchorSheet,
		Required: true,
		Mandatory: []string{
			"VM", "Powerstate", "Template", "CPUs", "Memory", "In Use MiB",
			OSColumn, VMKeyColumn, HostKeyColumn,
		},
		Aliases: map[string]string{
			"OS": OSColumn,
		},
		LinkColumn: VMKeyColumn,
		LinkScope:  LinkVM,
	})
	c.add(&SheetSchema{
		Name:       "vCPU",
		Mandatory:  []string{"VM", VMKeyColumn, "CPUs"},
		LinkColumn: VMKeyColumn,
		LinkScope:  LinkVM,
	})
	c.add(&SheetSchema{
		Name:       "vMemory",
		Mandatory:  []string{"VM", VMKeyColumn, "Size MiB"},
		LinkColumn: VMKeyColumn,
		LinkScope:  LinkVM,
	})
	c.add(&SheetSchema{
		Name:       "vDisk",
		Mandatory:  []string{"VM", VMKeyColumn, "Disk", "Capacity MiB"},
		LinkColumn: VMKeyColumn,
		LinkScope:  LinkVM,
	})
	c.add(&SheetSchema{
		Name:       "vPartition",
		Mandatory:  []string{"VM", VMKeyColumn, "Disk", "Capacity MiB", "Consumed MiB"},
		LinkColumn: VMKeyColumn,
		LinkScope:  LinkVM,
	})
	c.add(&SheetSchema{
		Name:      "vNetwork",
		Mandatory: []string{"VM", VMKeyColumn, "Network"},
		Aliases: map[string]string{
			"Network #1": "Network",
		},
		LinkColumn: VMKeyColumn,
		LinkScope:  LinkVM,
	})
	c.add(&SheetSchema{
		Name:       "vSnapshot",
		Mandatory:  []string{"VM", VMKeyColumn, "Name"},
		LinkColumn: VMKeyColumn,
		LinkScope:  LinkVM,
	})
	c.add(&SheetSchema{
		Name:      "vHost",
		Mandatory: []string{"Host", "Datacenter", "Cluster", "# CPU", "# Cores"},
		Aliases: map[string]string{
			"# Memory": "Memory",
		},
		LinkColumn: HostKeyColumn,
		LinkScope:  LinkHost,
	})

	c.categories = []Category{
		{Name: "vm", Prefix: "vm", Columns: []string{"VM"}},
		{Name: "dns", Prefix: "dns", Columns: []string{"DNS Name"}},
		{Name: "ip", Prefix: "ip", Columns: []string{"Primary IP Address", "IP Address"}},
		{Name: "cluster", Prefix: "cluster", Columns: []string{"Cluster"}},
		{Name: "host", Prefix: "host", Columns: []string{"Host"}},
		{Name: "datacenter", Prefix: "dc", Columns: []string{"Datacenter"}},
	}
	c.reindexCategories()

	return c
}

func (c *Catalog) add(s *SheetSchema) {
	c.order = append(c.order, s.Name)
	c.sheets[s.Name] = s
}

func (c *Catalog) reindexCategories() {
	c.columnCategory = make(map[string]int)
	for i, cat := range c.categories {
		for _, col := range cat.Columns {
			c.columnCategory[col] = i
		}
	}
}

// SheetNames returns all catalog sheet names in their fixed order, anchor
// sheet first.
func (c *Catalog) SheetNames() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Schema returns the schema for a sheet, if the sheet is recognized.
func (c *Catalog) Schema(sheet string) (*SheetSchema, bool) {
	s, ok := c.sheets[sheet]
	return s, ok
}

// IsRequiredSheet reports whether a document without this sheet is invalid.
func (c *Catalog) IsRequiredSheet(sheet string) bool {
	s, ok := c.sheets[sheet]
	return ok && s.Required
}

// MandatoryColumns returns the ordered mandatory column names of a sheet,
// or nil for unknown sheets.
func (c *Catalog) MandatoryColumns(sheet string) []string {
	s, ok := c.sheets[sheet]
	if !ok {
		return nil
	}
	out := make([]string, len(s.Mandatory))
	copy(out, s.Mandatory)
	return out
}

// CanonicalName resolves a raw header cell to its canonical column name.
// Headers with no registered alias pass through unchanged.
func (c *Catalog) CanonicalName(sheet, header string) string {
	if s, ok := c.sheets[sheet]; ok {
		if canonical, ok := s.Aliases[header]; ok {
			return canonical
		}
	}
	if canonical, ok := commonAliases[header]; ok {
		return canonical
	}
	return header
}

// CategoryFor returns the anonymization category a canonical column belongs
// to, if any.
func (c *Catalog) CategoryFor(column string) (Category, bool) {
	i, ok := c.columnCategory[column]
	if !ok {
		return Category{}, false
	}
	return c.categories[i], true
}

// Categories returns all anonymization categories in their fixed order.
func (c *Catalog) Categories() []Category {
	out := make([]Category, len(c.categories))
	copy(out, c.categories)
	return out
}

// overrideFile is the YAML shape accepted by Load.
type overrideFile struct {
	Sheets []struct {
		Name      string            `yaml:"name"`
		Required  bool              `yaml:"required"`
		Mandatory []string          `yaml:"mandatory"`
		Aliases   map[string]string `yaml:"aliases"`
	} `yaml:"sheets"`
}

// Load builds the default catalog and layers a YAML override file on top.
// Overrides only extend: new sheets are appended, existing sheets gain extra
// mandatory columns and aliases, nothing built-in is removed.
func Load(path string) (*Catalog, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	var of overrideFile
	if err := yaml.Unmarshal(raw, &of); err != nil {
		return nil, fmt.Errorf("parse catalog file %s: %w", path, err)
	}

	for _, ov := range of.Sheets {
		existing, ok := c.sheets[ov.Name]
		if !ok {
			c.add(&SheetSchema{
				Name:      ov.Name,
				Required:  ov.Required,
				Mandatory: ov.Mandatory,
				Aliases:   ov.Aliases,
			})
			continue
		}
		for _, col := range ov.Mandatory {
			if !contains(existing.Mandatory, col) {
				existing.Mandatory = append(existing.Mandatory, col)
			}
		}
		for from, to := range ov.Aliases {
			if existing.Aliases == nil {
				existing.Aliases = make(map[string]string)
			}
			existing.Aliases[from] = to
		}
	}

	return c, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
