// Package config holds the options of one merge run.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Config is populated from CLI flags in cmd and passed unchanged into the
// engine.
type Config struct {
	Inputs      []string
	OutputPath  string
	CatalogPath string

	IgnoreMissingOptionalSheets      bool
	SkipInvalidDocuments             bool
	Anonymize                        bool
	OnlyMandatoryColumns             bool
	IncludeSourceIdentifier          bool
	SkipRowsWithEmptyMandatoryValues bool
	EnableDomainValidation           bool
	// MaxAnchorRows caps retained anchor-sheet rows and switches on
	// referential filtering of dependent sheets. 0 = no cap.
	MaxAnchorRows int

	LogLevel string
	Quiet    bool
	JSON     bool
}

// SourceIdentifierColumn is the synthetic column appended when
// IncludeSourceIdentifier is set.
const SourceIdentifierColumn = "Source File"

// Validate checks option conflicts. It runs before any document is touched.
func (c *Config) Validate() error {
	if len(c.Inputs) == 0 {
		return fmt.Errorf("no input files given")
	}
	if c.OutputPath == "" {
		return fmt.Errorf("output path must not be empty")
	}
	if c.MaxAnchorRows < 0 {
		return fmt.Errorf("max-anchor-rows must be positive, got %d", c.MaxAnchorRows)
	}
	if c.Anonymize && c.IncludeSourceIdentifier {
		return fmt.Errorf("anonymize and include-source-identifier are mutually exclusive: the source column would re-identify anonymized documents")
	}

	c.OutputPath = filepath.Clean(c.OutputPath)
	for i, p := range c.Inputs {
		c.Inputs[i] = filepath.Clean(p)
	}
	return nil
}

// ExpandInputs resolves the configured inputs to a flat list of xlsx files.
// Directory entries are expanded to the .xlsx files they contain, sorted by
// name; plain files are kept as given.
func (c *Config) ExpandInputs() ([]string, error) {
	var files []string
	for _, in := range c.Inputs {
		info, err := os.Stat(in)
		if err != nil {
			// Let the accessor classify and report it per document.
			files = append(files, in)
			continue
		}
		if !info.IsDir() {
			files = append(files, in)
			continue
		}
		var inDir []string
		err = filepath.Walk(in, func(path string, fi os.FileInfo, err error) error {
			if err != nil || fi.IsDir() || filepath.Ext(path) != ".xlsx" {
				return nil
			}
			inDir = append(inDir, path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan directory %s: %w", in, err)
		}
		sort.Strings(inDir)
		files = append(files, inDir...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .xlsx files found in the given inputs")
	}
	return files, nil
}
