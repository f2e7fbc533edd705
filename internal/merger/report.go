package merger

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rvmerge/rvmerge/internal/validate"
)

// State names the orchestrator phase. Transitions are strictly sequential;
// StateFailed is terminal and reachable from every phase.
type State int

const (
	StateValidating State = iota
	StateReconciling
	StateExtracting
	StateWriting
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateValidating:
		return "validating"
	case StateReconciling:
		return "reconciling"
	case StateExtracting:
		return "extracting"
	case StateWriting:
		return "writing"
	case StateDone:
		return "done"
	default:
		return "failed"
	}
}

// SheetStats counts what happened to one output sheet.
type SheetStats struct {
	Documents             int `json:"documents"`
	Rows                  int `json:"rows"`
	DroppedEmptyMandatory int `json:"dropped_empty_mandatory,omitempty"`
	FilteredByLink        int `json:"filtered_by_link,omitempty"`
}

// Report is the full outcome of one merge run.
type Report struct {
	RunID       string                   `json:"run_id"`
	Success     bool                     `json:"success"`
	OutputFiles []string                 `json:"output_files,omitempty"`
	Documents   []string                 `json:"documents,omitempty"`
	Skipped     []string                 `json:"skipped,omitempty"`
	Issues      []validate.Issue         `json:"issues,omitempty"`
	Sheets      map[string]*SheetStats   `json:"sheets,omitempty"`
	Semantic    *validate.SemanticResult `json:"domain_validation,omitempty"`
	Anonymized  int                      `json:"anonymized,omitempty"`
	Duration    time.Duration            `json:"-"`
	DurationStr string                   `json:"duration"`
}

// Warnings returns the non-fatal issues of the run.
func (r *Report) Warnings() []validate.Issue {
	var out []validate.Issue
	for _, iss := range r.Issues {
		if !iss.Fatal {
			out = append(out, iss)
		}
	}
	return out
}

// Summary renders the human-readable run summary. Every skipped document
// and every dropped or diverted row count appears here.
func (r *Report) Summary() string {
	var b strings.Builder
	if r.Success {
		fmt.Fprintf(&b, "merge succeeded in %s\n", r.Duration.Round(time.Millisecond))
	} else {
		fmt.Fprintf(&b, "merge failed after %s\n", r.Duration.Round(time.Millisecond))
	}
	fmt.Fprintf(&b, "documents merged: %d", len(r.Documents))
	if len(r.Skipped) > 0 {
		fmt.Fprintf(&b, " (skipped: %s)", strings.Join(r.Skipped, ", "))
	}
	b.WriteString("\n")

	for _, sheet := range sortedSheetNames(r.Sheets) {
		st := r.Sheets[sheet]
		fmt.Fprintf(&b, "  %s: %d rows from %d documents", sheet, st.Rows, st.Documents)
		if st.DroppedEmptyMandatory > 0 {
			fmt.Fprintf(&b, ", %d dropped (empty mandatory values)", st.DroppedEmptyMandatory)
		}
		if st.FilteredByLink > 0 {
			fmt.Fprintf(&b, ", %d filtered (no matching anchor row)", st.FilteredByLink)
		}
		b.WriteString("\n")
	}

	if r.Semantic != nil {
		fmt.Fprintf(&b, "domain validation: %d accepted, %d rejected\n",
			r.Semantic.TotalAccepted, r.Semantic.TotalRejected)
		for reason, n := range r.Semantic.PerReason {
			fmt.Fprintf(&b, "  %s: %d\n", reason, n)
		}
		if r.Semantic.CeilingReached {
			fmt.Fprintf(&b, "  record ceiling reached; %d rows dropped after it\n",
				r.Semantic.DroppedAfterCeiling)
		}
	}
	if r.Anonymized > 0 {
		fmt.Fprintf(&b, "anonymized values: %d\n", r.Anonymized)
	}
	if warns := r.Warnings(); len(warns) > 0 {
		fmt.Fprintf(&b, "warnings: %d\n", len(warns))
	}
	for _, f := range r.OutputFiles {
		fmt.Fprintf(&b, "wrote %s\n", f)
	}
	return b.String()
}

func sortedSheetNames(m map[string]*SheetStats) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
