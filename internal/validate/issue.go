// Package validate implements the two validation tiers: structural checks
// on whole documents and semantic checks on individual rows.
package validate

import "fmt"

// Issue is one recorded validation finding. Fatal issues exclude the
// document they name (or abort the run, depending on the skip policy);
// non-fatal issues are warnings surfaced in the summary.
type Issue struct {
	Source  string `json:"source"`
	Fatal   bool   `json:"fatal"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	level := "warning"
	if i.Fatal {
		level = "error"
	}
	return fmt.Sprintf("[%s] %s: %s", level, i.Source, i.Message)
}

func fatal(source, format string, args ...any) Issue {
	return Issue{Source: source, Fatal: true, Message: fmt.Sprintf(format, args...)}
}

func warning(source, format string, args ...any) Issue {
	return Issue{Source: source, Fatal: false, Message: fmt.Sprintf(format, args...)}
}
