package validate

import (
	"github.com/rvmerge/rvmerge/internal/document"
)

// MaxAnchorRecords is the hard ceiling on anchor rows accepted by domain
// validation. Rows beyond it are counted, never evaluated.
const MaxAnchorRecords = 20000

// Reason classifies why a row failed domain validation.
type Reason string

const (
	ReasonRowCeiling    Reason = "row count ceiling reached"
	ReasonMissingVMUUID Reason = "missing VM UUID"
	ReasonMissingOS     Reason = "missing operating system"
	ReasonDuplicate     Reason = "duplicate VM UUID"
)

// FailedRow is a rejected row kept for the failed-rows workbook.
type FailedRow struct {
	Source string
	Row    document.Row
	Reason Reason
}

// SemanticResult accumulates domain validation outcomes for the anchor
// sheet over a whole run. The counters serialize for machine consumers;
// the rejected rows themselves only go to the failed-rows workbook.
type SemanticResult struct {
	Failed              []FailedRow    `json:"-"`
	PerReason           map[Reason]int `json:"per_reason,omitempty"`
	TotalAccepted       int            `json:"accepted"`
	TotalRejected       int            `json:"rejected"`
	CeilingReached      bool           `json:"ceiling_reached,omitempty"`
	DroppedAfterCeiling int            `json:"dropped_after_ceiling,omitempty"`
}

// RowChecker applies the domain rules to anchor rows, in fixed precedence:
// ceiling, then VM UUID presence, then OS presence, then cross-document
// VM UUID uniqueness. A row violating several rules is recorded once, under
// the first matching reason.
type RowChecker struct {
	uuidIdx int
	osIdx   int
	seen    map[string]struct{}
	result  SemanticResult
}

// NewRowChecker builds a checker for the reconciled anchor schema.
// uuidIdx and osIdx are the reconciled column indexes of the two required
// keys; pass -1 for a key whose column did not survive reconciliation (its
// presence check is then skipped).
func NewRowChecker(uuidIdx, osIdx int) *RowChecker {
	return &RowChecker{
		uuidIdx: uuidIdx,
		osIdx:   osIdx,
		seen:    make(map[string]struct{}),
		result:  SemanticResult{PerReason: make(map[Reason]int)},
	}
}

// Check evaluates one anchor row. It returns true when the row is accepted;
// rejected rows are retained internally together with their reason.
func (c *RowChecker) Check(source string, row document.Row) bool {
	if c.result.TotalAccepted >= MaxAnchorRecords {
		c.result.CeilingReached = true
		c.result.DroppedAfterCeiling++
		return c.reject(source, row, ReasonRowCeiling)
	}
	if c.uuidIdx >= 0 && (c.uuidIdx >= len(row) || row[c.uuidIdx].IsBlank()) {
		return c.reject(source, row, ReasonMissingVMUUID)
	}
	if c.osIdx >= 0 && (c.osIdx >= len(row) || row[c.osIdx].IsBlank()) {
		return c.reject(source, row, ReasonMissingOS)
	}
	if c.uuidIdx >= 0 && c.uuidIdx < len(row) {
		key := row[c.uuidIdx].String()
		if _, dup := c.seen[key]; dup {
			return c.reject(source, row, ReasonDuplicate)
		}
		c.seen[key] = struct{}{}
	}
	c.result.TotalAccepted++
	return true
}

func (c *RowChecker) reject(source string, row document.Row, reason Reason) bool {
	c.result.TotalRejected++
	c.result.PerReason[reason]++
	c.result.Failed = append(c.result.Failed, FailedRow{Source: source, Row: row, Reason: reason})
	return false
}

// Result returns the accumulated outcome. The checker must not be used
// after extraction completes.
func (c *RowChecker) Result() *SemanticResult { return &c.result }

// MissingMandatoryIndex returns the index of the first mandatory column
// that is blank in the row, or -1 when all mandatory cells carry values.
// Indexes beyond the row length count as blank.
func MissingMandatoryIndex(row document.Row, mandatoryIdx []int) int {
	for _, i := range mandatoryIdx {
		if i < 0 {
			continue
		}
		if i >= len(row) || row[i].IsBlank() {
			return i
		}
	}
	return -1
}
